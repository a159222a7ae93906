package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/repository"
	"github.com/namefreezers/weather-dashboard/internal/weather"
	"github.com/namefreezers/weather-dashboard/internal/weather/types"
)

const (
	keyDescription = "Key for Weather Dashboard"
	keyPurpose     = "WeatherDashboard"

	objectPrefix    = "weather-data/"
	timestampLayout = "20060102-150405"
)

// Sentinel errors callers can inspect with errors.Is.
var (
	// no payload was handed to StoreSnapshot
	ErrNoPayload = errors.New("no weather data to store")

	// no usable KMS key identifier
	ErrKeyNotSet = errors.New("KMS key ID is not set")

	ErrKeyProvisioning    = errors.New("kms key provisioning failed")
	ErrBucketProvisioning = errors.New("bucket provisioning failed")
	ErrStore              = errors.New("snapshot store failed")
)

// KeyCreator creates a managed symmetric encryption key.
type KeyCreator interface {
	CreateKey(ctx context.Context, description, purpose string) (string, error)
}

// ObjectStore is the bucket the snapshots are written to.
type ObjectStore interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	SetDefaultEncryption(ctx context.Context, keyID string) error
	PutJSON(ctx context.Context, key string, body []byte, keyID string) error
}

// KeyCache remembers a created key ID between runs.
type KeyCache interface {
	KeyID(ctx context.Context) (string, error)
	SetKeyID(ctx context.Context, id string) error
}

// SnapshotIndex records each stored object.
type SnapshotIndex interface {
	Record(ctx context.Context, rec repository.SnapshotRecord) (int64, error)
}

// Deps are the collaborators of a Dashboard. Cache and Index are optional.
type Deps struct {
	Fetcher weather.Fetcher
	Keys    KeyCreator
	Store   ObjectStore
	Cache   KeyCache
	Index   SnapshotIndex

	// Out receives the human-readable run summary. Defaults to io.Discard.
	Out io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Dashboard provisions the key and bucket, then fetches and stores weather per city.
type Dashboard struct {
	deps   Deps
	cfg    *config.Config
	logger *zap.Logger

	// key created or recalled by an earlier run of this Dashboard
	known KeyRef
}

// NewDashboard wires up the workflow.
func NewDashboard(deps Deps, cfg *config.Config, logger *zap.Logger) *Dashboard {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Dashboard{deps: deps, cfg: cfg, logger: logger}
}

// EnsureEncryptionKey returns the configured key, a key this Dashboard already
// obtained, a remembered key, or a newly created one, in that order of
// preference. On failure it returns a zero KeyRef.
func (d *Dashboard) EnsureEncryptionKey(ctx context.Context) (KeyRef, error) {
	if d.cfg.KMSKeyID != "" {
		d.logger.Info("using existing KMS key", zap.String("key_id", d.cfg.KMSKeyID))
		return KeyRef{ID: d.cfg.KMSKeyID, Source: KeySourceConfig}, nil
	}
	if d.known.Valid() {
		return d.known, nil
	}

	if d.deps.Cache != nil {
		id, err := d.deps.Cache.KeyID(ctx)
		switch {
		case err != nil:
			d.logger.Warn("kms key cache lookup failed", zap.Error(err))
		case id != "":
			d.logger.Info("using remembered KMS key", zap.String("key_id", id))
			d.known = KeyRef{ID: id, Source: KeySourceCache}
			return d.known, nil
		}
	}

	d.logger.Info("creating a new KMS key")
	id, err := d.deps.Keys.CreateKey(ctx, keyDescription, keyPurpose)
	if err != nil {
		d.logger.Error("error creating KMS key", zap.Error(err))
		return KeyRef{}, fmt.Errorf("%w: %w", ErrKeyProvisioning, err)
	}
	d.logger.Info("created KMS key", zap.String("key_id", id))

	if d.deps.Cache != nil {
		if err := d.deps.Cache.SetKeyID(ctx, id); err != nil {
			d.logger.Warn("failed to remember KMS key id", zap.String("key_id", id), zap.Error(err))
		}
	}
	d.known = KeyRef{ID: id, Source: KeySourceCreated}
	return d.known, nil
}

// EnsureStorageBucket creates the bucket if it is absent and, when key is valid,
// sets its default encryption to that key. An existing bucket is left untouched.
func (d *Dashboard) EnsureStorageBucket(ctx context.Context, key KeyRef) (BucketStatus, error) {
	status := BucketStatus{Name: d.deps.Store.Name()}
	log := d.logger.With(zap.String("bucket", status.Name))

	exists, err := d.deps.Store.Exists(ctx)
	if err != nil {
		log.Error("error checking bucket", zap.Error(err))
		return status, fmt.Errorf("%w: %w", ErrBucketProvisioning, err)
	}
	if exists {
		log.Info("bucket exists")
		status.Existed = true
		return status, nil
	}

	log.Info("creating bucket")
	if err := d.deps.Store.Create(ctx); err != nil {
		log.Error("error creating bucket", zap.Error(err))
		return status, fmt.Errorf("%w: %w", ErrBucketProvisioning, err)
	}
	status.Created = true
	log.Info("successfully created bucket")

	if !key.Valid() {
		log.Error("KMS key ID is not set, bucket encryption skipped")
		return status, fmt.Errorf("%w: bucket encryption skipped", ErrKeyNotSet)
	}
	if err := d.deps.Store.SetDefaultEncryption(ctx, key.ID); err != nil {
		log.Error("error setting bucket default encryption", zap.String("key_id", key.ID), zap.Error(err))
		return status, fmt.Errorf("%w: %w", ErrBucketProvisioning, err)
	}
	status.EncryptionApplied = true
	log.Info("default encryption set", zap.String("key_id", key.ID))
	return status, nil
}

// FetchWeather returns the current observation for city. On failure the
// observation is empty and the error wraps one of the types.Err* fetch errors.
func (d *Dashboard) FetchWeather(ctx context.Context, city string) (types.Observation, error) {
	obs, err := d.deps.Fetcher.FetchCurrent(ctx, city)
	if err != nil {
		d.logger.Error("error fetching weather data", zap.String("city", city), zap.Error(err))
		return types.Observation{}, err
	}
	return obs, nil
}

// StoreSnapshot stamps a copy of the payload with the capture time and writes it
// to weather-data/{city}-{timestamp}.json with SSE-KMS. It returns the object key.
func (d *Dashboard) StoreSnapshot(ctx context.Context, key KeyRef, obs types.Observation, city string) (string, error) {
	if obs.Empty() {
		return "", ErrNoPayload
	}
	if !key.Valid() {
		d.logger.Error("cannot save data with encryption", zap.String("city", city), zap.Error(ErrKeyNotSet))
		return "", ErrKeyNotSet
	}

	timestamp := d.deps.Now().Format(timestampLayout)
	objectKey := ObjectKey(city, timestamp)

	snapshot := make(map[string]any, len(obs.Payload)+1)
	for k, v := range obs.Payload {
		snapshot[k] = v
	}
	snapshot["timestamp"] = timestamp

	body, err := json.Marshal(snapshot)
	if err != nil {
		d.logger.Error("error encoding snapshot", zap.String("city", city), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrStore, err)
	}

	d.logger.Info("saving data to S3", zap.String("object_key", objectKey), zap.String("key_id", key.ID))
	if err := d.deps.Store.PutJSON(ctx, objectKey, body, key.ID); err != nil {
		d.logger.Error("error saving to S3", zap.String("object_key", objectKey), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrStore, err)
	}

	d.record(ctx, key, obs, city, objectKey, timestamp)
	return objectKey, nil
}

// ObjectKey is the storage path of a snapshot.
func ObjectKey(city, timestamp string) string {
	return fmt.Sprintf("%s%s-%s.json", objectPrefix, city, timestamp)
}

func (d *Dashboard) record(ctx context.Context, key KeyRef, obs types.Observation, city, objectKey, timestamp string) {
	if d.deps.Index == nil {
		return
	}
	rec := repository.SnapshotRecord{
		RunID:       runIDFrom(ctx),
		City:        city,
		Bucket:      d.deps.Store.Name(),
		ObjectKey:   objectKey,
		KMSKeyID:    key.ID,
		CapturedAt:  timestamp,
		Temperature: obs.Summary.Temp,
		FeelsLike:   obs.Summary.FeelsLike,
		Humidity:    obs.Summary.Humidity,
		Description: obs.Summary.Description,
	}
	if _, err := d.deps.Index.Record(ctx, rec); err != nil {
		d.logger.Warn("failed to index snapshot", zap.String("object_key", objectKey), zap.Error(err))
	}
}

// Run provisions the key and bucket and then handles every configured city in
// order. It never stops early; all outcomes end up in the returned Report.
func (d *Dashboard) Run(ctx context.Context) Report {
	report := Report{RunID: uuid.New()}
	ctx = withRunID(ctx, report.RunID)
	d.logger.Info("starting weather dashboard run",
		zap.String("run_id", report.RunID.String()),
		zap.Strings("cities", d.cfg.Cities),
	)

	report.Key, report.KeyErr = d.EnsureEncryptionKey(ctx)
	report.Bucket, report.BucketErr = d.EnsureStorageBucket(ctx, report.Key)

	out := d.deps.Out
	for _, city := range d.cfg.Cities {
		res := CityResult{City: city}

		fmt.Fprintf(out, "\nFetching weather for %s...\n", city)
		obs, err := d.FetchWeather(ctx, city)
		if err != nil {
			fmt.Fprintf(out, "Failed to fetch weather data for %s\n", city)
			res.Err = err
			report.Cities = append(report.Cities, res)
			continue
		}

		res.Summary = obs.Summary
		printSummary(out, obs.Summary)

		res.ObjectKey, res.Err = d.StoreSnapshot(ctx, report.Key, obs, city)
		if res.Err == nil {
			fmt.Fprintf(out, "Weather data for %s saved to S3!\n", city)
		}
		report.Cities = append(report.Cities, res)
	}

	d.logger.Info("weather dashboard run finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("stored", report.Stored()),
		zap.Int("cities", len(report.Cities)),
		zap.Bool("failed", report.Failed()),
	)
	return report
}

func printSummary(out io.Writer, s types.Summary) {
	fmt.Fprintf(out, "Temperature: %v°F\n", s.Temp)
	fmt.Fprintf(out, "Feels like: %v°F\n", s.FeelsLike)
	fmt.Fprintf(out, "Humidity: %v%%\n", s.Humidity)
	fmt.Fprintf(out, "Conditions: %s\n", s.Description)
}

type runIDKey struct{}

func withRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// runIDFrom returns the run ID set by Run, or a fresh one for standalone calls.
func runIDFrom(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(runIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.New()
}
