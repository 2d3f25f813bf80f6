package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/state"
)

// DefaultPollInterval is used when New receives a non-positive interval.
const DefaultPollInterval = 3 * time.Second

// maxBackoff bounds the poll delay while the API keeps failing.
const maxBackoff = 30 * time.Second

var (
	ErrNotParticipant = errors.New("join the discussion to send messages")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrBusy           = errors.New("request already in flight")
	ErrNotLoaded      = errors.New("discussion not loaded")
	ErrNotOwner       = errors.New("only your own messages can be deleted")
	ErrClosed         = errors.New("room closed")
)

// Room drives one discussion: the initial load, the background poll, and the
// join/send/delete actions. Every response replaces the stored discussion.
type Room struct {
	client   api.Discussions
	id       string
	self     api.User
	interval time.Duration
	store    *state.Store

	mu      sync.Mutex
	closed  bool
	sending bool
	joining bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New prepares a room for discussionID viewed by self. Nothing is fetched
// until Open.
func New(client api.Discussions, discussionID string, self api.User, interval time.Duration) *Room {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Room{
		client:   client,
		id:       discussionID,
		self:     self,
		interval: interval,
		store:    &state.Store{},
	}
}

// ID returns the discussion id.
func (r *Room) ID() string { return r.id }

// Self returns the user the room is rendered for.
func (r *Room) Self() api.User { return r.self }

// Snapshot returns a copy of the latest state.
func (r *Room) Snapshot() state.Snapshot {
	return r.store.Snapshot()
}

// CanSend reports whether the current user is a participant of the loaded
// discussion.
func (r *Room) CanSend() bool {
	snap := r.store.Snapshot()
	return snap.HasDiscussion && snap.Discussion.HasParticipant(r.self.ID)
}

// Open fetches the discussion and, on success, starts polling it until ctx is
// cancelled or Close is called. A failed load is terminal for this Room.
func (r *Room) Open(ctx context.Context) error {
	d, err := r.client.GetDiscussion(ctx, r.id)
	if err == nil && d == nil {
		err = ErrNotLoaded
	}
	if !r.apply(d, err) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("load discussion %s: %w", r.id, err)
	}
	r.startPoller(ctx)
	return nil
}

// Refresh fetches the discussion once, outside the poll schedule.
func (r *Room) Refresh(ctx context.Context) error {
	if r.isClosed() {
		return ErrClosed
	}
	d, err := r.client.GetDiscussion(ctx, r.id)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !r.apply(d, err) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("refresh discussion: %w", err)
	}
	return nil
}

// Join adds the current user to the discussion's book room. A failure leaves
// the stored discussion untouched.
func (r *Room) Join(ctx context.Context) error {
	snap := r.store.Snapshot()
	if !snap.HasDiscussion {
		return ErrNotLoaded
	}
	if snap.Discussion.HasParticipant(r.self.ID) {
		return nil
	}
	if !r.begin(&r.joining) {
		return ErrBusy
	}
	r.store.SetJoining(true)
	defer func() {
		r.end(&r.joining)
		r.store.SetJoining(false)
	}()

	d, err := r.client.JoinDiscussion(ctx, snap.Discussion.Book.ID)
	if err != nil {
		log.Printf("join discussion %s failed: %v", r.id, err)
		return fmt.Errorf("join discussion: %w", err)
	}
	if d == nil {
		return r.Refresh(ctx)
	}
	if !r.apply(d, nil) {
		return ErrClosed
	}
	return nil
}

// Send posts content to the discussion. Only participants may send, and only
// one send may be in flight at a time.
func (r *Room) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if !r.CanSend() {
		return ErrNotParticipant
	}
	if !r.begin(&r.sending) {
		return ErrBusy
	}
	r.store.SetSending(true)
	defer func() {
		r.end(&r.sending)
		r.store.SetSending(false)
	}()

	d, err := r.client.SendMessage(ctx, r.id, content)
	if err != nil {
		log.Printf("send to discussion %s failed: %v", r.id, err)
		return fmt.Errorf("send message: %w", err)
	}
	if d == nil {
		return r.Refresh(ctx)
	}
	if !r.apply(d, nil) {
		return ErrClosed
	}
	return nil
}

// DeleteMessage removes one of the current user's messages.
func (r *Room) DeleteMessage(ctx context.Context, messageID string) error {
	snap := r.store.Snapshot()
	if !snap.HasDiscussion {
		return ErrNotLoaded
	}
	var found *api.Message
	for i := range snap.Discussion.Messages {
		if snap.Discussion.Messages[i].ID == messageID {
			found = &snap.Discussion.Messages[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("message %s not found", messageID)
	}
	if found.User.ID == "" || found.User.ID != r.self.ID {
		return ErrNotOwner
	}

	d, err := r.client.DeleteMessage(ctx, r.id, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if d == nil {
		return r.Refresh(ctx)
	}
	if !r.apply(d, nil) {
		return ErrClosed
	}
	return nil
}

// Close stops polling and discards any response that resolves afterwards.
// It blocks until the poll goroutine has exited.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Room) startPoller(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return
	}
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		timer := time.NewTimer(r.interval)
		defer timer.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			d, err := r.client.GetDiscussion(ctx, r.id)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
				log.Printf("discussion %s poll failed (attempt %d): %v", r.id, failures, err)
			} else {
				failures = 0
			}
			r.apply(d, err)
			timer.Reset(calculateBackoff(failures, r.interval))
		}
	}()
}

// calculateBackoff doubles the poll interval for each consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// apply records a response unless the room has been closed.
func (r *Room) apply(d *api.Discussion, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.store.Update(d, err)
	return true
}

func (r *Room) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Room) begin(flag *bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (r *Room) end(flag *bool) {
	r.mu.Lock()
	*flag = false
	r.mu.Unlock()
}
