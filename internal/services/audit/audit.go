// Package audit records ingest decisions into the columnar store for later analysis
package audit

import (
	"context"
	"time"

	"herald/internal/platform/store"
)

// Table is the columnar destination for ingest audit events
const Table = "ingest_audit"

// Recorder is the audit port used by the ingest pipeline
type Recorder interface {
	RecordRejection(ctx context.Context, identifier, field, keyword string) error
	RecordOutcome(ctx context.Context, identifier, outcome, requestID string) error
}

// Sink writes audit rows through the Clickhouse seam.
// A nil inner seam turns every call into a no-op so deployments without
// the columnar store run unchanged
type Sink struct {
	ch  store.Clickhouse
	now func() time.Time
}

// NewSink constructs a sink over the given Clickhouse seam
func NewSink(ch store.Clickhouse) *Sink {
	return &Sink{ch: ch, now: time.Now}
}

// RecordRejection records a document refused by moderation word screening
func (s *Sink) RecordRejection(ctx context.Context, identifier, field, keyword string) error {
	return s.insert(ctx, identifier, "rejection", field, keyword, "")
}

// RecordOutcome records the terminal disposition of one ingest run
func (s *Sink) RecordOutcome(ctx context.Context, identifier, outcome, requestID string) error {
	return s.insert(ctx, identifier, "outcome", "", outcome, requestID)
}

func (s *Sink) insert(ctx context.Context, identifier, kind, field, detail, requestID string) error {
	if s.ch == nil {
		return nil
	}
	row := []any{s.now().UTC(), identifier, kind, field, detail, requestID}
	return s.ch.Insert(ctx, Table, [][]any{row})
}
