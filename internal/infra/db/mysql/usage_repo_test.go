package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/usage"
)

func newMock(t *testing.T) (*UsageRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUsageRepository(db), mock
}

func TestUsageRepository_Save(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	mock.ExpectExec(`INSERT INTO usage_events`).
		WithArgs("ev-1", "analyze", "-", int64(2048), "failed", int64(35), created.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Event{
		ID:         "ev-1",
		Kind:       domain.KindAnalyze,
		Bytes:      2048,
		Status:     domain.StatusFailed,
		DurationMS: 35,
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUsageRepository_Recent(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "kind", "mime_type", "bytes", "status", "duration_ms", "created_at"}).
		AddRow("ev-2", "render", "application/pdf", int64(9000), "ok", int64(12), at).
		AddRow("ev-1", "analyze", "-", int64(0), "failed", int64(3), at.Add(-time.Minute))
	mock.ExpectQuery(`SELECT id, kind, mime_type, bytes, status, duration_ms, created_at\s+FROM usage_events`).
		WithArgs(maxLimit).
		WillReturnRows(rows)

	got, err := repo.Recent(context.Background(), 500)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events", len(got))
	}
	if got[0].Kind != domain.KindRender || got[0].Bytes != 9000 || !got[0].CreatedAt.Equal(at) {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].MimeType != "" || got[1].Status != domain.StatusFailed {
		t.Errorf("dash should map back to empty mime type: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
