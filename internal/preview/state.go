// Package preview serves the output directory, rebuilds it when sources change
// and exposes the latest batch outcome over HTTP.
package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
)

// State tracks the most recent batch for the status endpoints.
type State struct {
	mu        sync.RWMutex
	last      *build.Result
	lastErr   error
	building  bool
	updatedAt time.Time
	goodBuild bool
}

// NewState creates an empty state.
func NewState() *State {
	return &State{}
}

func (s *State) setBuilding() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.building = true
}

// Set stores the outcome of a batch. err is the error returned by the batch
// service itself, not the errors collected in the result.
func (s *State) Set(result *build.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.building = false
	s.updatedAt = time.Now()
	s.lastErr = err
	if result != nil {
		s.last = result
		if result.Status != build.StatusFailed && result.Status != build.StatusCanceled {
			s.goodBuild = true
		}
	}
}

// Snapshot is a consistent copy of the state.
type Snapshot struct {
	Last      *build.Result
	Err       error
	Building  bool
	UpdatedAt time.Time
	GoodBuild bool // at least one batch wrote a usable site
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Last:      s.last,
		Err:       s.lastErr,
		Building:  s.building,
		UpdatedAt: s.updatedAt,
		GoodBuild: s.goodBuild,
	}
}
