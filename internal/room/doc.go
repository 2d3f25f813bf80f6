// Package room runs a single discussion room.
//
// A Room loads the discussion once on Open, then polls it every interval
// until the caller's context is cancelled or Close is called. Consecutive
// poll failures back off exponentially up to 30s. Join, Send and
// DeleteMessage go straight to the API and store whatever discussion comes
// back. Results are written to a state.Store, so the newest response to
// resolve replaces the previous one wholesale.
//
// Close is the end of the room's life. It stops the poll goroutine and makes
// every response that resolves afterwards a no-op; callers get ErrClosed.
package room
