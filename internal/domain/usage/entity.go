package usage

import "time"

// Kind of request being journaled
type Kind string

const (
	KindAnalyze Kind = "analyze"
	KindRender  Kind = "render"
)

// Status enum
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Event is request metadata only. Result text and image bytes are never recorded.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	MimeType   string    `json:"mime_type,omitempty"`
	Bytes      int64     `json:"bytes"`
	Status     Status    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
