package storage

import (
	"context"
	"io"
	"time"

	"github.com/jobrunner/envmap/internal/ports/output"
)

// InstrumentedStorage records operation counts and durations of a wrapped
// ObjectStorage.
type InstrumentedStorage struct {
	next    output.ObjectStorage
	metrics output.MetricsCollector
}

// NewInstrumentedStorage wraps next. A nil collector disables recording.
func NewInstrumentedStorage(next output.ObjectStorage, metrics output.MetricsCollector) *InstrumentedStorage {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &InstrumentedStorage{next: next, metrics: metrics}
}

// List implements output.ObjectStorage.
func (s *InstrumentedStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	start := time.Now()
	objects, err := s.next.List(ctx)
	s.record("list", start, err)
	return objects, err
}

// Download implements output.ObjectStorage.
func (s *InstrumentedStorage) Download(ctx context.Context, key string, dest string) error {
	start := time.Now()
	err := s.next.Download(ctx, key, dest)
	s.record("download", start, err)
	return err
}

// GetReader implements output.ObjectStorage. The duration covers opening
// the asset, not reading it.
func (s *InstrumentedStorage) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	r, err := s.next.GetReader(ctx, key)
	s.record("get", start, err)
	return r, err
}

// Exists implements output.ObjectStorage.
func (s *InstrumentedStorage) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, key)
	s.record("exists", start, err)
	return ok, err
}

func (s *InstrumentedStorage) record(op string, start time.Time, err error) {
	s.metrics.IncStorageOperations(op, err == nil)
	s.metrics.ObserveStorageDuration(op, time.Since(start))
}
