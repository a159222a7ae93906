package services

import (
	"github.com/google/uuid"

	"github.com/namefreezers/weather-dashboard/internal/weather/types"
)

// KeySource tells where a KeyRef came from.
type KeySource string

const (
	KeySourceConfig  KeySource = "config"
	KeySourceCache   KeySource = "cache"
	KeySourceCreated KeySource = "created"
)

// KeyRef identifies the KMS key used for every write of a run.
type KeyRef struct {
	ID     string
	Source KeySource
}

// Valid reports whether the reference names a key.
func (k KeyRef) Valid() bool { return k.ID != "" }

// BucketStatus describes what EnsureStorageBucket found and did.
type BucketStatus struct {
	Name              string
	Existed           bool
	Created           bool
	EncryptionApplied bool
}

// CityResult is the outcome for one city.
type CityResult struct {
	City      string
	Summary   types.Summary
	ObjectKey string // empty unless stored
	Err       error
}

// Stored reports whether the snapshot reached the bucket.
func (r CityResult) Stored() bool { return r.Err == nil && r.ObjectKey != "" }

// Report collects everything a run did.
type Report struct {
	RunID     uuid.UUID
	Key       KeyRef
	KeyErr    error
	Bucket    BucketStatus
	BucketErr error
	Cities    []CityResult
}

// Stored counts cities whose snapshot was written.
func (r Report) Stored() int {
	n := 0
	for _, c := range r.Cities {
		if c.Stored() {
			n++
		}
	}
	return n
}

// Failed reports whether any provisioning step or any city failed.
func (r Report) Failed() bool {
	if r.KeyErr != nil || r.BucketErr != nil {
		return true
	}
	for _, c := range r.Cities {
		if c.Err != nil {
			return true
		}
	}
	return false
}
