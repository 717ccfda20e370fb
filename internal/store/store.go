package store

import (
	"context"
	"time"

	"carbonlens/internal/model"
)

// ResultRecord is a persisted model fit: the JSON-encoded estimate result
// plus enough metadata to key it.
type ResultRecord struct {
	Model      string
	Frequency  model.Frequency
	ComputedAt time.Time
	Payload    []byte
}

type Store interface {
	UpsertObservations(ctx context.Context, observations []model.Observation) error
	ListObservations(ctx context.Context, variable string) ([]model.Observation, error)
	ListVariables(ctx context.Context) ([]string, error)
	UpsertResult(ctx context.Context, record ResultRecord) error
	Close() error
}

// NopStore discards writes and returns nothing; used when no database path
// is configured.
type NopStore struct{}

func (s *NopStore) UpsertObservations(ctx context.Context, observations []model.Observation) error {
	_ = ctx
	_ = observations
	return nil
}

func (s *NopStore) ListObservations(ctx context.Context, variable string) ([]model.Observation, error) {
	_ = ctx
	_ = variable
	return nil, nil
}

func (s *NopStore) ListVariables(ctx context.Context) ([]string, error) {
	_ = ctx
	return nil, nil
}

func (s *NopStore) UpsertResult(ctx context.Context, record ResultRecord) error {
	_ = ctx
	_ = record
	return nil
}

func (s *NopStore) Close() error {
	return nil
}
