// Package eventstore records batch history as an append-only event log in SQLite
// and projects it into per-batch summaries.
package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

const (
	statusRunning = "running"
)

// BatchSummary is a read model of one batch.
type BatchSummary struct {
	BatchID     string        `json:"batch_id"`
	Trigger     string        `json:"trigger,omitempty"`
	Revision    string        `json:"revision,omitempty"`
	Status      string        `json:"status"` // running, or the batch outcome
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Pages       int           `json:"pages"`
	Rendered    int           `json:"rendered"`
	Unchanged   int           `json:"unchanged"`
	Failed      int           `json:"failed"`
	Errors      []ErrorRecord `json:"errors,omitempty"`
}

// HistoryProjection maintains an in-memory view of batch history rebuilt from a Store.
type HistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	batches  map[string]*BatchSummary
	history  []*BatchSummary // completed, newest first
	maxSize  int
	lastSync time.Time
}

// NewHistoryProjection creates a projection backed by store keeping at most maxSize
// completed batches.
func NewHistoryProjection(store Store, maxSize int) *HistoryProjection {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &HistoryProjection{
		store:   store,
		batches: make(map[string]*BatchSummary),
		maxSize: maxSize,
	}
}

// Rebuild reconstructs the projection from every event in the store.
func (p *HistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.batches = make(map[string]*BatchSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	slices.SortStableFunc(p.history, func(a, b *BatchSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	p.trimLocked()
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *HistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.trimLocked()
}

func (p *HistoryProjection) applyLocked(e Event) {
	id := e.BatchID()
	if id == "" {
		return
	}
	s, ok := p.batches[id]
	if !ok {
		s = &BatchSummary{BatchID: id, Status: statusRunning, StartedAt: e.Timestamp()}
		p.batches[id] = s
	}

	switch e.Type() {
	case TypeBatchStarted:
		var meta BatchStartedMeta
		if json.Unmarshal(e.Payload(), &meta) == nil {
			s.Trigger = meta.Trigger
			s.Revision = meta.Revision
		}
		s.StartedAt = e.Timestamp()

	case TypePagesDiscovered:
		var payload struct {
			Pages int `json:"pages"`
		}
		if json.Unmarshal(e.Payload(), &payload) == nil {
			s.Pages = payload.Pages
		}

	case TypeErrorRecorded:
		var rec ErrorRecord
		if json.Unmarshal(e.Payload(), &rec) == nil {
			s.Errors = append(s.Errors, rec)
		}

	case TypeBatchCompleted:
		var res BatchResult
		if json.Unmarshal(e.Payload(), &res) == nil {
			s.Status = res.Outcome
			s.Rendered = res.Rendered
			s.Unchanged = res.Unchanged
			s.Failed = res.Failed
			s.Duration = time.Duration(res.DurationMS) * time.Millisecond
		}
		done := e.Timestamp()
		s.CompletedAt = &done
		if !slices.Contains(p.history, s) {
			p.history = append([]*BatchSummary{s}, p.history...)
		}
	}
}

// trimLocked bounds history and drops summaries of completed batches that fell out of it.
func (p *HistoryProjection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, s := range p.history {
		keep[s.BatchID] = struct{}{}
	}
	for id, s := range p.batches {
		if s.Status == statusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.batches, id)
		}
	}
}

// History returns up to limit completed batches, newest first. A limit <= 0 returns all.
func (p *HistoryProjection) History(limit int) []BatchSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]BatchSummary, 0, n)
	for _, s := range p.history[:n] {
		out = append(out, copySummary(s))
	}
	return out
}

// Batch returns the summary for one batch.
func (p *HistoryProjection) Batch(batchID string) (BatchSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.batches[batchID]
	if !ok {
		return BatchSummary{}, false
	}
	return copySummary(s), true
}

// Last returns the most recently completed batch.
func (p *HistoryProjection) Last() (BatchSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return BatchSummary{}, false
	}
	return copySummary(p.history[0]), true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *HistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

func copySummary(s *BatchSummary) BatchSummary {
	cp := *s
	cp.Errors = slices.Clone(s.Errors)
	return cp
}
