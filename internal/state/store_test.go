package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/folio/internal/api"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	d := &api.Discussion{
		ID:           "d1",
		Participants: []api.User{{ID: "u1"}},
		Messages:     []api.Message{{ID: "m1"}, {ID: "m2"}},
	}

	before := time.Now()
	s.Update(d, nil)

	snap := s.Snapshot()
	if !snap.HasDiscussion || snap.Phase != PhaseLoaded || snap.Discussion.ID != "d1" {
		t.Fatalf("snapshot = %#v, want loaded d1", snap)
	}
	if len(snap.Discussion.Messages) != 2 {
		t.Fatalf("messages = %#v, want 2", snap.Discussion.Messages)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Discussion.Messages[0].ID = "mutated"
	snap.Discussion.Participants[0].ID = "mutated"
	snap2 := s.Snapshot()
	if snap2.Discussion.Messages[0].ID != "m1" || snap2.Discussion.Participants[0].ID != "u1" {
		t.Fatalf("Snapshot should clone discussion slices; got %#v", snap2.Discussion)
	}

	// The caller's value must not alias the store either.
	d.Messages[1].ID = "mutated"
	if s.Snapshot().Discussion.Messages[1].ID != "m2" {
		t.Fatalf("Update should copy the caller's slices")
	}
}

func TestStore_FailureBeforeLoadMovesToFailed(t *testing.T) {
	var s Store

	if got := s.Snapshot().Phase; got != PhaseLoading {
		t.Fatalf("initial phase = %v, want loading", got)
	}
	s.Update(nil, errors.New("not found"))
	if got := s.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("phase = %v, want failed", got)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(&api.Discussion{ID: "d1", Messages: []api.Message{{ID: "m1"}}}, nil)

	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if snap.Phase != PhaseLoaded || snap.Discussion.ID != "d1" || len(snap.Discussion.Messages) != 1 {
		t.Fatalf("discussion changed on error: %#v", snap)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	s.Update(nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, errors.New("fail 2"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(&api.Discussion{ID: "d1"}, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_InFlightFlags(t *testing.T) {
	var s Store

	s.SetSending(true)
	s.SetJoining(true)
	snap := s.Snapshot()
	if !snap.Sending || !snap.Joining {
		t.Fatalf("flags = sending %v joining %v, want both", snap.Sending, snap.Joining)
	}
	s.SetSending(false)
	if s.Snapshot().Sending {
		t.Fatalf("Sending should clear")
	}
}
