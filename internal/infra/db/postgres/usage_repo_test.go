package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/usage"
)

func TestUsageRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := NewUsageRepository(db)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`(?s)INSERT INTO usage_events.*VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)\s+ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("ev-1", "render", "application/pdf", int64(1234), "ok", int64(20), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), &domain.Event{
		ID:         "ev-1",
		Kind:       domain.KindRender,
		MimeType:   "application/pdf",
		Bytes:      1234,
		Status:     domain.StatusOK,
		DurationMS: 20,
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
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := NewUsageRepository(db)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM usage_events\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "mime_type", "bytes", "status", "duration_ms", "created_at"}).
			AddRow("ev-1", "analyze", "image/jpeg", int64(4096), "ok", int64(900), at))

	got, err := repo.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].MimeType != "image/jpeg" || got[0].Kind != domain.KindAnalyze || got[0].DurationMS != 900 {
		t.Fatalf("unexpected events %+v", got)
	}

	// query errors surface unchanged
	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM usage_events`).WillReturnError(boom)
	if _, err := repo.Recent(context.Background(), 5); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
