// Package metrics records usage of external calls (recipe searches and
// language model requests) and reports on process health.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	metricsdb "meal-calendar/internal/metrics/metrics_db"
	"meal-calendar/internal/shared"
)

// ExecutionMetric records metadata for a single external call.
type ExecutionMetric struct {
	Source           string
	Operation        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	ResultCount      int
	LatencyMS        int64
	Failed           bool
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	queries *metricsdb.Queries
	db      *sql.DB
	now     func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		queries: metricsdb.New(db),
		db:      db,
		now:     time.Now,
	}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	err := s.queries.InsertExecutionMetric(ctx, metricsdb.InsertExecutionMetricParams{
		Source:           m.Source,
		Operation:        m.Operation,
		Model:            m.Model,
		PromptTokens:     int64(m.PromptTokens),
		CompletionTokens: int64(m.CompletionTokens),
		ResultCount:      int64(m.ResultCount),
		LatencyMs:        m.LatencyMS,
		Failed:           m.Failed,
		Timestamp:        ts.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert execution metric: %w", err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.CallMeta.
func (s *Store) RecordMeta(ctx context.Context, meta shared.CallMeta) error {
	return s.Record(ctx, MapMeta(meta, s.now()))
}

// DailyUsage represents totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
	TotalFailed     int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := s.now().UTC().AddDate(0, 0, -days)
	rows, err := s.queries.GetDailyUsage(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}

	results := make([]DailyUsage, 0, len(rows))
	for _, r := range rows {
		results = append(results, DailyUsage{
			Date:            r.Day,
			TotalPrompt:     int(r.PromptTokens),
			TotalCompletion: int(r.CompletionTokens),
			TotalExecution:  int(r.Executions),
			TotalFailed:     int(r.Failures),
		})
	}
	return results, nil
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().UTC().AddDate(0, 0, -olderThanDays)
	n, err := s.queries.CleanupExecutionMetrics(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up execution metrics: %w", err)
	}
	return n, nil
}

// MapMeta converts a call description into an ExecutionMetric stamped at ts.
func MapMeta(meta shared.CallMeta, ts time.Time) ExecutionMetric {
	return ExecutionMetric{
		Source:           meta.Source,
		Operation:        meta.Operation,
		Model:            meta.Usage.Model,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		ResultCount:      meta.Results,
		LatencyMS:        meta.Latency.Milliseconds(),
		Failed:           meta.Failed,
		Timestamp:        ts.UTC(),
	}
}
