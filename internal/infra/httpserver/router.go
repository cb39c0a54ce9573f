package httpserver

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appai "github.com/anushka-codergirl/workoutwise/internal/application/ai"
	appreport "github.com/anushka-codergirl/workoutwise/internal/application/report"
	"github.com/anushka-codergirl/workoutwise/internal/domain/report"
	"github.com/anushka-codergirl/workoutwise/internal/domain/usage"
	"github.com/anushka-codergirl/workoutwise/internal/middleware"
)

const (
	msgNoImage       = "No image file uploaded"
	msgAnalyzeFailed = "An error occurred while analyzing this image!"
	msgReportFailed  = "An error occurred while generating the PDF report!"
	msgNoResult      = "Result text is required"
	msgBadDataURI    = "Image must be a base64 image data URI"
	msgUsageFailed   = "An error occurred while reading usage!"

	imageField = "image"
)

// Options carries everything the router needs. Zero limits fall back to 10 MB.
type Options struct {
	Analyzer *appai.Service
	Reports  *appreport.Service
	Journal  usage.Repository // optional

	Logger  *slog.Logger
	Health  map[string]middleware.HealthChecker
	Metrics map[string]func() map[string]any

	MaxUploadBytes int64
	MaxJSONBytes   int64
	CORSOrigins    []string
	RateLimiter    *middleware.RateLimiter // optional
	Static         fs.FS                   // optional
}

type Router struct {
	analyzer  *appai.Service
	reports   *appreport.Service
	journal   usage.Repository
	logger    *slog.Logger
	maxUpload int64
	maxJSON   int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analyzer:  opts.Analyzer,
		reports:   opts.Reports,
		journal:   opts.Journal,
		logger:    opts.Logger,
		maxUpload: opts.MaxUploadBytes,
		maxJSON:   opts.MaxJSONBytes,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.maxUpload <= 0 {
		r.maxUpload = 10 << 20
	}
	if r.maxJSON <= 0 {
		r.maxJSON = 10 << 20
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(r.logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/metrics", middleware.MetricsHandler(opts.Metrics))
	mux.Get("/usage", r.wrap(r.handleUsage))

	mux.Group(func(rt chi.Router) {
		if opts.RateLimiter != nil {
			rt.Use(opts.RateLimiter.Middleware)
		}
		rt.Post("/getInfo", r.wrap(r.handleGetInfo))
		rt.Post("/downloadPDF", r.wrap(r.handleDownloadPDF))
	})

	if opts.Static != nil {
		mux.Handle("/*", http.FileServerFS(opts.Static))
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var he *httpError
		if !errors.As(err, &he) {
			he = &httpError{Status: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Err: err}
		}

		if he.Status >= 500 {
			r.logger.Error(err.Error(), "method", req.Method, "uri", req.URL.RequestURI())
		} else {
			r.logger.Debug(err.Error(), "method", req.Method, "uri", req.URL.RequestURI())
		}

		if werr := writeJSON(w, he.Status, envelope{"error": he.Message}); werr != nil {
			r.logger.Error("write error response", "error", werr)
		}
	}
}

// POST /getInfo
// multipart form, one file under "image"
func (r *Router) handleGetInfo(w http.ResponseWriter, req *http.Request) error {
	msgTooLarge := "Image must not be larger than " + strconv.FormatInt(r.maxUpload>>20, 10) + " MB"
	if req.ContentLength > r.maxUpload {
		return tooLarge(msgTooLarge, nil)
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return tooLarge(msgTooLarge, err)
		}
		return badRequest(msgNoImage, err)
	}
	defer req.MultipartForm.RemoveAll()

	files := req.MultipartForm.File[imageField]
	switch {
	case len(files) == 0:
		return badRequest(msgNoImage, nil)
	case len(files) > 1:
		return badRequest("Only one image file can be uploaded", nil)
	}

	f, err := files[0].Open()
	if err != nil {
		return internal(msgAnalyzeFailed, err)
	}
	defer f.Close()

	body, mimeType, err := detectImageType(f, files[0])
	if err != nil {
		return badRequest("Uploaded file must be an image", err)
	}

	res, err := r.analyzer.Analyze(req.Context(), appai.AnalyzeCommand{Body: body, MimeType: mimeType})
	middleware.RecordAnalysis(err == nil)
	if err != nil {
		return internal(msgAnalyzeFailed, err)
	}
	return writeJSON(w, http.StatusOK, res)
}

// detectImageType trusts the part's Content-Type and sniffs the bytes when
// the client did not send a useful one.
func detectImageType(f multipart.File, fh *multipart.FileHeader) (io.Reader, string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		mediaType, err := middleware.ValidateImageType(declared)
		return f, mediaType, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]

	mediaType, err := middleware.ValidateImageType(http.DetectContentType(head))
	if err != nil {
		return nil, "", err
	}
	return io.MultiReader(bytes.NewReader(head), f), mediaType, nil
}

// POST /downloadPDF
// Body: {"result": "...", "image": "data:image/...;base64,..."}
func (r *Router) handleDownloadPDF(w http.ResponseWriter, req *http.Request) error {
	var cmd appreport.RenderCommand
	if err := readJSON(w, req, r.maxJSON, &cmd); err != nil {
		return err
	}
	cmd.Result = middleware.SanitizeString(cmd.Result)

	dl, err := r.reports.Render(req.Context(), cmd)
	middleware.RecordRender(err == nil)
	switch {
	case errors.Is(err, report.ErrEmptyBody):
		return badRequest(msgNoResult, err)
	case errors.Is(err, report.ErrInvalidDataURI):
		return badRequest(msgBadDataURI, err)
	case err != nil:
		return internal(msgReportFailed, err)
	}
	defer r.reports.Release(dl)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.WriteHeader(http.StatusOK)

	// headers are gone; a failed copy can only be logged
	if _, err := io.Copy(w, dl); err != nil {
		r.logger.Warn("streaming document failed", "key", dl.Key, "error", err)
	}
	return nil
}

// GET /usage?limit=20
func (r *Router) handleUsage(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	if r.journal == nil {
		return writeJSON(w, http.StatusOK, []*usage.Event{})
	}
	events, err := r.journal.Recent(req.Context(), limit)
	if err != nil {
		return internal(msgUsageFailed, err)
	}
	return writeJSON(w, http.StatusOK, events)
}
