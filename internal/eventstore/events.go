package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Event type names.
const (
	TypeBatchStarted    = "BatchStarted"
	TypePagesDiscovered = "PagesDiscovered"
	TypeErrorRecorded   = "ErrorRecorded"
	TypeBatchCompleted  = "BatchCompleted"
)

// BatchStartedMeta describes how a batch was started.
type BatchStartedMeta struct {
	Trigger     string `json:"trigger"` // build, check, preview, schedule
	Source      string `json:"source"`
	Output      string `json:"output,omitempty"`
	Revision    string `json:"revision,omitempty"`
	Concurrency int    `json:"concurrency"`
}

// BatchStarted is emitted when a batch begins.
type BatchStarted struct {
	BaseEvent
	Meta BatchStartedMeta
}

// NewBatchStarted creates a BatchStarted event.
func NewBatchStarted(batchID string, meta BatchStartedMeta) (*BatchStarted, error) {
	base, err := newBase(batchID, TypeBatchStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BatchStarted{BaseEvent: base, Meta: meta}, nil
}

// PagesDiscovered is emitted once the source set is known.
type PagesDiscovered struct {
	BaseEvent
	Pages  int `json:"pages"`
	Assets int `json:"assets"`
}

// NewPagesDiscovered creates a PagesDiscovered event.
func NewPagesDiscovered(batchID string, pages, assets int) (*PagesDiscovered, error) {
	base, err := newBase(batchID, TypePagesDiscovered, map[string]int{"pages": pages, "assets": assets})
	if err != nil {
		return nil, err
	}
	return &PagesDiscovered{BaseEvent: base, Pages: pages, Assets: assets}, nil
}

// ErrorRecord is the persisted form of one collected error.
type ErrorRecord struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Anchor   string `json:"anchor,omitempty"`
	Message  string `json:"message"`
}

// ErrorRecorded is emitted for every error collected by a batch.
type ErrorRecorded struct {
	BaseEvent
	Record ErrorRecord
}

// NewErrorRecorded creates an ErrorRecorded event.
func NewErrorRecorded(batchID string, rec ErrorRecord) (*ErrorRecorded, error) {
	base, err := newBase(batchID, TypeErrorRecorded, rec)
	if err != nil {
		return nil, err
	}
	return &ErrorRecorded{BaseEvent: base, Record: rec}, nil
}

// BatchResult is the final tally of a batch.
type BatchResult struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Rendered   int    `json:"rendered"`
	Unchanged  int    `json:"unchanged"`
	Failed     int    `json:"failed"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
}

// BatchCompleted is emitted when a batch finishes, whatever its outcome.
type BatchCompleted struct {
	BaseEvent
	Result BatchResult
}

// NewBatchCompleted creates a BatchCompleted event.
func NewBatchCompleted(batchID string, result BatchResult) (*BatchCompleted, error) {
	base, err := newBase(batchID, TypeBatchCompleted, result)
	if err != nil {
		return nil, err
	}
	return &BatchCompleted{BaseEvent: base, Result: result}, nil
}

func newBase(batchID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, errors.WrapError(err, errors.CategoryHistory, "failed to marshal "+eventType+" payload").
			WithContext("batch_id", batchID).
			Build()
	}
	return BaseEvent{
		EventBatchID:   batchID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}
