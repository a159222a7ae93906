package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(db, "pgx")
	cleanup := func() {
		sqlxDB.Close()
	}
	return sqlxDB, mock, cleanup
}

func sampleRecord() SnapshotRecord {
	return SnapshotRecord{
		RunID:       uuid.New(),
		City:        "Calgary",
		Bucket:      "weather-bucket",
		ObjectKey:   "weather-data/Calgary-20261018-101500.json",
		KMSKeyID:    "key-123",
		CapturedAt:  "20261018-101500",
		Temperature: 45.2,
		FeelsLike:   40.1,
		Humidity:    60,
		Description: "clear sky",
	}
}

const insertSQL = `INSERT INTO weather_snapshots
            (run_id, city, bucket, object_key, kms_key_id, captured_at, temperature, feels_like, humidity, description)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id;`

func TestSnapshotRepository_EnsureSchema(t *testing.T) {
	sqlxDB, mock, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewSnapshotRepository(sqlxDB, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS weather_snapshots")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestSnapshotRepository_Record_Success(t *testing.T) {
	sqlxDB, mock, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewSnapshotRepository(sqlxDB, zap.NewNop())

	rec := sampleRecord()
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WithArgs(rec.RunID, "Calgary", "weather-bucket", rec.ObjectKey, "key-123", "20261018-101500",
			45.2, 40.1, 60.0, "clear sky").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Record(context.Background(), rec)
	if err != nil {
		t.Fatalf("Record() unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("Record() id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestSnapshotRepository_Record_DBError(t *testing.T) {
	sqlxDB, mock, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewSnapshotRepository(sqlxDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WillReturnError(sql.ErrConnDone)

	id, err := repo.Record(context.Background(), sampleRecord())
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("Record() error = %v, want %v", err, sql.ErrConnDone)
	}
	if id != 0 {
		t.Errorf("Record() id = %d, want 0", id)
	}
}

func TestSnapshotRepository_ListByCity(t *testing.T) {
	sqlxDB, mock, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewSnapshotRepository(sqlxDB, zap.NewNop())

	runID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "run_id", "city", "bucket", "object_key", "kms_key_id", "captured_at",
		"temperature", "feels_like", "humidity", "description", "created_at",
	}).
		AddRow(int64(2), runID.String(), "Calgary", "weather-bucket", "weather-data/Calgary-20261018-111500.json",
			"key-123", "20261018-111500", 46.0, 41.0, 58.0, "few clouds", now).
		AddRow(int64(1), runID.String(), "Calgary", "weather-bucket", "weather-data/Calgary-20261018-101500.json",
			"key-123", "20261018-101500", 45.2, 40.1, 60.0, "clear sky", now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM weather_snapshots")).
		WithArgs("Calgary", 2).
		WillReturnRows(rows)

	recs, err := repo.ListByCity(context.Background(), "Calgary", 2)
	if err != nil {
		t.Fatalf("ListByCity() unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListByCity() returned %d records, want 2", len(recs))
	}
	if recs[0].ID != 2 || recs[0].Description != "few clouds" {
		t.Errorf("first record = %+v", recs[0])
	}
	if recs[1].RunID != runID {
		t.Errorf("RunID = %v, want %v", recs[1].RunID, runID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestSnapshotRepository_ListByCity_InvalidLimit(t *testing.T) {
	sqlxDB, _, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewSnapshotRepository(sqlxDB, zap.NewNop())

	if _, err := repo.ListByCity(context.Background(), "Calgary", 0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("ListByCity() error = %v, want %v", err, ErrInvalidLimit)
	}
}
