package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/folio/internal/api"
)

// Phase is the lifecycle position of a discussion room.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Snapshot represents the latest discussion state available to the UI.
type Snapshot struct {
	Phase               Phase
	Discussion          api.Discussion
	HasDiscussion       bool
	Sending             bool
	Joining             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored discussion. When err is non-nil the previous data
// is kept but the error is recorded for visibility. A failure before the first
// successful load moves the phase to PhaseFailed.
func (s *Store) Update(discussion *api.Discussion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		if !s.snapshot.HasDiscussion {
			s.snapshot.Phase = PhaseFailed
		}
		return
	}

	if discussion != nil {
		s.snapshot.Discussion = cloneDiscussion(*discussion)
		s.snapshot.HasDiscussion = true
		s.snapshot.Phase = PhaseLoaded
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetSending flags whether a message post is in flight.
func (s *Store) SetSending(v bool) {
	s.mu.Lock()
	s.snapshot.Sending = v
	s.mu.Unlock()
}

// SetJoining flags whether a join request is in flight.
func (s *Store) SetJoining(v bool) {
	s.mu.Lock()
	s.snapshot.Joining = v
	s.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Discussion = cloneDiscussion(s.snapshot.Discussion)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneDiscussion(d api.Discussion) api.Discussion {
	dup := d
	if len(d.Participants) > 0 {
		dup.Participants = make([]api.User, len(d.Participants))
		copy(dup.Participants, d.Participants)
	}
	if len(d.Messages) > 0 {
		dup.Messages = make([]api.Message, len(d.Messages))
		copy(dup.Messages, d.Messages)
	}
	return dup
}
