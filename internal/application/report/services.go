package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anushka-codergirl/workoutwise/internal/application"
	"github.com/anushka-codergirl/workoutwise/internal/domain/ai"
	domain "github.com/anushka-codergirl/workoutwise/internal/domain/report"
	"github.com/anushka-codergirl/workoutwise/internal/domain/storage"
	"github.com/anushka-codergirl/workoutwise/internal/domain/usage"
)

const (
	DefaultTitle      = "Workout Info"
	DefaultFilePrefix = "workout_info"

	cleanupTimeout = 10 * time.Second
)

// Service renders analysis results into downloadable documents.
type Service struct {
	Renderer   domain.Renderer
	Store      storage.Store
	Sweeper    storage.Sweeper
	Journal    usage.Repository // optional
	Clock      application.Clock
	Logger     *slog.Logger
	Title      string
	FilePrefix string
}

// RenderCommand is the client's {result, image} pair.
type RenderCommand struct {
	Result string `json:"result"`
	Image  string `json:"image"`
}

// Download is a finished document waiting to be streamed. Call Release when done.
type Download struct {
	Key  string
	Name string
	*storage.Object
}

// Render validates the request, writes the document into the download area
// and opens it for streaming.
func (s *Service) Render(ctx context.Context, cmd RenderCommand) (dl *Download, err error) {
	start := s.Clock.Now()
	defer func() {
		var size int64
		if dl != nil {
			size = dl.Size
		}
		s.record(ctx, size, start, err)
	}()

	doc, err := s.document(cmd)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Prepare(ctx, storage.AreaDownload); err != nil {
		return nil, fmt.Errorf("prepare download area: %w", err)
	}

	key := storage.NewKey(storage.AreaDownload, s.prefix(), ".pdf", start)
	w, err := s.Store.Create(ctx, key, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.Renderer.Render(w, doc); err != nil {
		w.Close()
		s.discard(key)
		return nil, fmt.Errorf("render document: %w", err)
	}
	if err := w.Close(); err != nil {
		s.discard(key)
		return nil, fmt.Errorf("flush document: %w", err)
	}

	obj, err := s.Store.Open(ctx, key)
	if err != nil {
		s.discard(key)
		return nil, fmt.Errorf("open document: %w", err)
	}

	return &Download{Key: key, Name: storage.Name(key), Object: obj}, nil
}

// Release closes the download and hands it to the sweeper.
func (s *Service) Release(dl *Download) {
	if dl == nil {
		return
	}
	if err := dl.Close(); err != nil {
		s.logger().Warn("failed to close document", "key", dl.Key, "error", err)
	}
	if s.Sweeper != nil {
		s.Sweeper.Sweep(dl.Key)
		return
	}
	s.discard(dl.Key)
}

func (s *Service) document(cmd RenderCommand) (domain.Document, error) {
	if strings.TrimSpace(cmd.Result) == "" {
		return domain.Document{}, domain.ErrEmptyBody
	}

	doc := domain.Document{Title: s.title(), Body: cmd.Result}
	if cmd.Image != "" {
		data, err := ai.ParseDataURI(cmd.Image)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrInvalidDataURI, err)
		}
		doc.Image = data
	}
	return doc, nil
}

func (s *Service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.Store.Remove(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger().Warn("failed to remove document", "key", key, "error", err)
	}
}

func (s *Service) record(ctx context.Context, size int64, start time.Time, err error) {
	if s.Journal == nil {
		return
	}
	e := &usage.Event{
		ID:         uuid.NewString(),
		Kind:       usage.KindRender,
		MimeType:   "application/pdf",
		Bytes:      size,
		Status:     usage.StatusOK,
		DurationMS: s.Clock.Now().Sub(start).Milliseconds(),
		CreatedAt:  start,
	}
	if err != nil {
		e.Status = usage.StatusFailed
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if jerr := s.Journal.Save(ctx, e); jerr != nil {
		s.logger().Warn("failed to journal render", "error", jerr)
	}
}

func (s *Service) title() string {
	if s.Title != "" {
		return s.Title
	}
	return DefaultTitle
}

func (s *Service) prefix() string {
	if s.FilePrefix != "" {
		return s.FilePrefix
	}
	return DefaultFilePrefix
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
