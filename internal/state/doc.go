// Package state provides the thread-safe snapshot store shared by the
// discussion poller and the UI.
//
// # Overview
//
// The room poller and the user's join/send actions all finish by calling
// Store.Update with whatever discussion the server returned. The UI never
// touches the in-flight requests; it reads Store.Snapshot on its own tick and
// renders the copy it gets back.
//
//	Producers (room):              Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ poll tick        │          │                  │
//	│ Join / Send      │─Update──→│ Snapshot()       │
//	│ DeleteMessage    │ (mutex)  │ render room      │
//	└──────────────────┘          └──────────────────┘
//
// # Semantics
//
// Update replaces the whole discussion; there is no merging. Two responses
// racing each other therefore resolve as "last Update wins", which is the
// documented behavior of the room.
//
// A failed Update keeps the previous discussion, records LastError and bumps
// ConsecutiveFailures. If nothing was ever loaded the phase becomes
// PhaseFailed. IsOffline reports two or more consecutive failures.
//
// Snapshot copies the participant and message slices, so callers may keep or
// mutate what they receive.
package state
