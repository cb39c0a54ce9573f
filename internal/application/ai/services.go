package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/anushka-codergirl/workoutwise/internal/application"
	domain "github.com/anushka-codergirl/workoutwise/internal/domain/ai"
	"github.com/anushka-codergirl/workoutwise/internal/domain/storage"
	"github.com/anushka-codergirl/workoutwise/internal/domain/usage"
)

// cleanupTimeout bounds removal of the upload once the request is over.
const cleanupTimeout = 10 * time.Second

// Service turns an uploaded photo into a description.
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Describer domain.Describer
	Store     storage.Store
	Journal   usage.Repository // optional
	Clock     application.Clock
	Logger    *slog.Logger
	Prompt    string
	Timeout   time.Duration // 0 = no limit beyond the request context
}

// AnalyzeCommand is one uploaded file as received by the HTTP layer.
type AnalyzeCommand struct {
	Body     io.Reader
	MimeType string
}

type AnalyzeResult struct {
	Result string `json:"result"`
	Image  string `json:"image"`
}

// Analyze stores the upload, reads it back, asks the model about it and
// removes the upload again on every exit path.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (res AnalyzeResult, err error) {
	start := s.Clock.Now()
	var size int64
	defer func() { s.record(ctx, cmd.MimeType, size, start, err) }()

	key := storage.NewKey(storage.AreaUpload, "image", storage.ExtensionFor(cmd.MimeType), start)
	w, err := s.Store.Create(ctx, key, cmd.MimeType)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("store upload: %w", err)
	}
	defer s.discard(key)

	if _, err = io.Copy(w, cmd.Body); err != nil {
		w.Close()
		return AnalyzeResult{}, fmt.Errorf("store upload: %w", err)
	}
	if err = w.Close(); err != nil {
		return AnalyzeResult{}, fmt.Errorf("store upload: %w", err)
	}

	data, err := s.load(ctx, key)
	if err != nil {
		return AnalyzeResult{}, err
	}
	size = int64(len(data))

	img := domain.Image{Data: data, MimeType: cmd.MimeType}
	dctx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	text, err := s.Describer.Describe(dctx, img, s.Prompt)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("describe image: %w", err)
	}

	return AnalyzeResult{Result: text, Image: img.DataURI()}, nil
}

func (s *Service) load(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// discard runs on a fresh context: the request may already be cancelled.
func (s *Service) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.Store.Remove(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger().Warn("failed to remove upload", "key", key, "error", err)
	}
}

func (s *Service) record(ctx context.Context, mimeType string, size int64, start time.Time, err error) {
	if s.Journal == nil {
		return
	}
	e := &usage.Event{
		ID:         uuid.NewString(),
		Kind:       usage.KindAnalyze,
		MimeType:   mimeType,
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
		s.logger().Warn("failed to journal analysis", "error", jerr)
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
