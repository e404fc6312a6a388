// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package database

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
	"github.com/tomtom215/wikirelated/internal/related"
)

// articleReader is the read side of *DB guarded by BreakerStore.
type articleReader interface {
	FindByLookupKey(ctx context.Context, key string) (models.ArticleRecord, bool, error)
	FindManyByIDs(ctx context.Context, ids []int64) (map[int64]models.ArticleRecord, error)
	SampleTitles(ctx context.Context, limit int) ([]string, error)
}

var (
	_ related.MetadataStore = (*DB)(nil)
	_ related.MetadataStore = (*BreakerStore)(nil)
)

// BreakerStore fronts the metadata store with a circuit breaker so that a
// failing database is reported as unavailable immediately instead of every
// request waiting on it.
type BreakerStore struct {
	inner articleReader
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// lookupResult carries FindByLookupKey's two values through the breaker.
type lookupResult struct {
	rec models.ArticleRecord
	ok  bool
}

// NewBreakerStore wraps inner. It opens after cfg.FailureThreshold
// consecutive failures and probes again after cfg.Timeout.
func NewBreakerStore(inner articleReader, cfg config.BreakerConfig) *BreakerStore {
	name := "duckdb-metadata"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// A caller giving up is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerStore{inner: inner, cb: cb, name: name}
}

// State returns the breaker state as a string.
func (b *BreakerStore) State() string {
	return stateToString(b.cb.State())
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			counts := b.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// FindByLookupKey implements related.MetadataStore.
func (b *BreakerStore) FindByLookupKey(ctx context.Context, key string) (models.ArticleRecord, bool, error) {
	res, err := b.execute(func() (any, error) {
		rec, ok, err := b.inner.FindByLookupKey(ctx, key)
		return lookupResult{rec: rec, ok: ok}, err
	})
	if err != nil {
		return models.ArticleRecord{}, false, err
	}
	lr, _ := res.(lookupResult)
	return lr.rec, lr.ok, nil
}

// FindManyByIDs implements related.MetadataStore.
func (b *BreakerStore) FindManyByIDs(ctx context.Context, ids []int64) (map[int64]models.ArticleRecord, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.FindManyByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	m, _ := res.(map[int64]models.ArticleRecord)
	return m, nil
}

// SampleTitles passes through the breaker like any other read.
func (b *BreakerStore) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.SampleTitles(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	titles, _ := res.([]string)
	return titles, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
