package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SnapshotRecord indexes one object written to the bucket.
type SnapshotRecord struct {
	ID          int64     `db:"id"          json:"id"`
	RunID       uuid.UUID `db:"run_id"      json:"run_id"`
	City        string    `db:"city"        json:"city"`
	Bucket      string    `db:"bucket"      json:"bucket"`
	ObjectKey   string    `db:"object_key"  json:"object_key"`
	KMSKeyID    string    `db:"kms_key_id"  json:"kms_key_id"`
	CapturedAt  string    `db:"captured_at" json:"captured_at"` // YYYYMMDD-HHMMSS, local time
	Temperature float64   `db:"temperature" json:"temperature"`
	FeelsLike   float64   `db:"feels_like"  json:"feels_like"`
	Humidity    float64   `db:"humidity"    json:"humidity"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

// SnapshotRepository records and lists stored snapshots.
type SnapshotRepository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, rec SnapshotRecord) (int64, error)
	ListByCity(ctx context.Context, city string, limit int) ([]SnapshotRecord, error)
}

// ErrInvalidLimit is returned when a listing limit is not positive.
var ErrInvalidLimit = errors.New("limit must be positive")

const schema = `
    CREATE TABLE IF NOT EXISTS weather_snapshots (
        id          BIGSERIAL PRIMARY KEY,
        run_id      UUID             NOT NULL,
        city        TEXT             NOT NULL,
        bucket      TEXT             NOT NULL,
        object_key  TEXT             NOT NULL UNIQUE,
        kms_key_id  TEXT             NOT NULL,
        captured_at TEXT             NOT NULL,
        temperature DOUBLE PRECISION NOT NULL,
        feels_like  DOUBLE PRECISION NOT NULL,
        humidity    DOUBLE PRECISION NOT NULL,
        description TEXT             NOT NULL,
        created_at  TIMESTAMPTZ      NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS weather_snapshots_city_created_idx
        ON weather_snapshots (city, created_at DESC);
`

type pgRepo struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSnapshotRepository(db *sqlx.DB, logger *zap.Logger) SnapshotRepository {
	return &pgRepo{db: db, logger: logger}
}

func (r *pgRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		r.logger.Error("failed to create weather_snapshots schema", zap.Error(err))
		return err
	}
	return nil
}

func (r *pgRepo) Record(ctx context.Context, rec SnapshotRecord) (int64, error) {
	const q = `
        INSERT INTO weather_snapshots
            (run_id, city, bucket, object_key, kms_key_id, captured_at, temperature, feels_like, humidity, description)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id;
    `
	var id int64
	row := r.db.QueryRowContext(ctx, q,
		rec.RunID, rec.City, rec.Bucket, rec.ObjectKey, rec.KMSKeyID, rec.CapturedAt,
		rec.Temperature, rec.FeelsLike, rec.Humidity, rec.Description,
	)
	if err := row.Scan(&id); err != nil {
		r.logger.Error("failed to record snapshot",
			zap.String("city", rec.City),
			zap.String("object_key", rec.ObjectKey),
			zap.Error(err),
		)
		return 0, err
	}

	r.logger.Debug("snapshot recorded",
		zap.Int64("id", id),
		zap.String("city", rec.City),
		zap.String("object_key", rec.ObjectKey),
	)
	return id, nil
}

func (r *pgRepo) ListByCity(ctx context.Context, city string, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	const q = `
        SELECT * FROM weather_snapshots
        WHERE city = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2;
    `
	var recs []SnapshotRecord
	if err := r.db.SelectContext(ctx, &recs, q, city, limit); err != nil {
		r.logger.Error("failed to list snapshots", zap.String("city", city), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed snapshots", zap.String("city", city), zap.Int("count", len(recs)))
	return recs, nil
}
