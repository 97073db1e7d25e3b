package build

import (
	"context"
	stderrors "errors"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// BatchService runs batches. The CLI, the preview watcher and the scheduler all
// go through it.
type BatchService interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Trigger names what started a batch.
type Trigger string

const (
	TriggerBuild    Trigger = "build"
	TriggerCheck    Trigger = "check"
	TriggerPreview  Trigger = "preview"
	TriggerSchedule Trigger = "schedule"
)

// Request contains all inputs of one batch.
type Request struct {
	Config *config.Config

	// BaseDir resolves relative chrome fragment paths; usually the config file's directory.
	BaseDir string

	Trigger Trigger

	// CheckOnly parses, renders and checks links without writing anything.
	CheckOnly bool

	// Force rewrites every page even when the manifest says it is unchanged.
	Force bool

	// Now is the generation time placed in the chrome. Zero means time.Now().
	Now time.Time
}

// Status is the outcome of a batch.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning" // only warnings were collected
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result describes a finished batch.
type Result struct {
	BatchID   string
	Status    Status
	Pages     int
	Rendered  int
	Unchanged int
	Failed    int
	Assets    int
	Revision  string
	OutputDir string

	// Errors holds every collected error, ordered by location.
	Errors []error

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Err joins the collected errors that are not warnings, or returns nil.
func (r *Result) Err() error {
	return stderrors.Join(r.Failures()...)
}

// Failures returns the collected errors that are neither warnings nor info.
func (r *Result) Failures() []error {
	var failing []error
	for _, err := range r.Errors {
		switch errors.GetSeverity(err) {
		case errors.SeverityWarning, errors.SeverityInfo:
		default:
			failing = append(failing, err)
		}
	}
	return failing
}

// Warnings returns the collected warnings.
func (r *Result) Warnings() []error {
	var out []error
	for _, err := range r.Errors {
		if errors.GetSeverity(err) == errors.SeverityWarning {
			out = append(out, err)
		}
	}
	return out
}
