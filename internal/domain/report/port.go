package report

import "io"

// Renderer lays out a Document and writes the encoded result to w.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}
