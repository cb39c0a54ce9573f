package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/anushka-codergirl/workoutwise/internal/application"
	"github.com/anushka-codergirl/workoutwise/internal/domain/report"
)

// Layout in points on a US Letter page.
const (
	margin        = 72.0
	titleSize     = 32.0
	bodySize      = 16.0
	lineSpacing   = 1.2
	imageGap      = 2.0
	defaultBox    = 300.0
	fontFamily    = "Helvetica"
	imageName     = "figure"
	documentMaker = "WorkoutWise"
)

type Options struct {
	Fit      report.FitPolicy
	BoxSize  float64 // side of the square image box, in points
	Compress bool
	Clock    application.Clock
}

// Renderer writes documents with fpdf. Safe for concurrent use; every call builds its own fpdf.Fpdf.
type Renderer struct {
	fit      report.FitPolicy
	box      float64
	compress bool
	clock    application.Clock
}

func NewRenderer(opts Options) *Renderer {
	r := &Renderer{fit: opts.Fit, box: opts.BoxSize, compress: opts.Compress, clock: opts.Clock}
	if !r.fit.Valid() {
		r.fit = report.FitContain
	}
	if r.box <= 0 {
		r.box = defaultBox
	}
	if r.clock == nil {
		r.clock = application.SystemClock{}
	}
	return r
}

func (r *Renderer) Render(w io.Writer, doc report.Document) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	now := r.clock.Now()
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCompression(r.compress)
	pdf.SetCreator(documentMaker, true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontFamily, "", titleSize)
	pdf.MultiCell(0, titleSize*lineSpacing, tr(doc.Title), "", "L", false)

	if len(doc.Image) > 0 {
		if err := r.placeImage(pdf, doc.Image); err != nil {
			return err
		}
	}

	pdf.SetFont(fontFamily, "", bodySize)
	pdf.MultiCell(0, bodySize*lineSpacing, tr(doc.Body), "", "L", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("laying out pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func (r *Renderer) placeImage(pdf *fpdf.Fpdf, data []byte) error {
	img, err := normalizeImage(data)
	if err != nil {
		return fmt.Errorf("%w: %v", report.ErrInvalidImage, err)
	}

	opts := fpdf.ImageOptions{ImageType: img.kind}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img.data))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("registering image: %w", err)
	}

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+r.box > pageH-bottom {
		pdf.AddPage()
	}

	left, _, _, _ := pdf.GetMargins()
	top := pdf.GetY()
	rect := fitRect(r.fit, r.box, float64(img.width), float64(img.height))
	pdf.ImageOptions(imageName, left+rect.X, top+rect.Y, rect.W, rect.H, false, opts, 0, "")

	// text continues under the box, whatever the drawn size
	pdf.SetY(top + r.box + imageGap)
	return nil
}

// Rect is a placement relative to the top-left corner of the image box.
type Rect struct {
	X, Y, W, H float64
}

// fitRect places a w×h image inside a square box of side box.
func fitRect(policy report.FitPolicy, box, w, h float64) Rect {
	if policy == report.FitStretch || w <= 0 || h <= 0 {
		return Rect{W: box, H: box}
	}
	scale := box / w
	if s := box / h; s < scale {
		scale = s
	}
	dw, dh := w*scale, h*scale
	return Rect{X: (box - dw) / 2, Y: (box - dh) / 2, W: dw, H: dh}
}

var _ report.Renderer = (*Renderer)(nil)
