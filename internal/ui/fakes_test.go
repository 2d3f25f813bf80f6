package ui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/assistant"
	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/prefs"
)

// fakeBackend records calls and serves canned data.
type fakeBackend struct {
	mu sync.Mutex

	books      api.BookList
	listErr    error
	queries    []api.BookQuery
	discussion api.Discussion
	getErr     error
	gets       int
	sendErr    error
	sends      []string
	joins      []string
	updates    []api.BookInput
	updateErr  error

	emptyBookDiscussion bool
}

func newFakeBackend(participants ...string) *fakeBackend {
	users := make([]api.User, 0, len(participants))
	for _, id := range participants {
		users = append(users, api.User{ID: id, Username: id})
	}
	return &fakeBackend{
		books: api.BookList{Books: []api.Book{{ID: "b1", Title: "Dune", Author: "Frank Herbert"}}, Total: 1, Page: 1, Pages: 1},
		discussion: api.Discussion{
			ID:           "d1",
			Book:         api.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert"},
			Participants: users,
			IsActive:     true,
		},
	}
}

func (f *fakeBackend) ListBooks(ctx context.Context, q api.BookQuery) (api.BookList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.books, f.listErr
}

func (f *fakeBackend) GetBook(ctx context.Context, id string) (*api.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books.Books {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, &api.Error{StatusCode: 404}
}

func (f *fakeBackend) CreateBook(ctx context.Context, input api.BookInput) (*api.Book, error) {
	return &api.Book{ID: "new", Title: input.Title}, nil
}

func (f *fakeBackend) UpdateBook(ctx context.Context, id string, input api.BookInput) (*api.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, input)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &api.Book{ID: id, Title: input.Title, Author: input.Author}, nil
}

func (f *fakeBackend) DeleteBook(ctx context.Context, id string) error { return nil }

func (f *fakeBackend) DownloadBook(ctx context.Context, id string) (api.Download, error) {
	return api.Download{}, nil
}

func (f *fakeBackend) ListReviews(ctx context.Context, bookID string) ([]api.Review, error) {
	return nil, nil
}

func (f *fakeBackend) CreateReview(ctx context.Context, input api.ReviewInput) (*api.Review, error) {
	return &api.Review{}, nil
}

func (f *fakeBackend) ListDiscussions(ctx context.Context) ([]api.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []api.Discussion{f.discussion}, nil
}

func (f *fakeBackend) GetBookDiscussion(ctx context.Context, bookID string) (*api.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emptyBookDiscussion {
		return nil, nil
	}
	d := f.discussion
	return &d, nil
}

func (f *fakeBackend) GetDiscussion(ctx context.Context, id string) (*api.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	d := f.discussion
	return &d, nil
}

func (f *fakeBackend) JoinDiscussion(ctx context.Context, bookID string) (*api.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, bookID)
	f.discussion.Participants = append(f.discussion.Participants, api.User{ID: "me", Username: "me"})
	d := f.discussion
	return &d, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, id, content string) (*api.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, content)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.discussion.Messages = append(f.discussion.Messages, api.Message{ID: "m" + content, User: api.User{ID: "me"}, Content: content})
	d := f.discussion
	return &d, nil
}

func (f *fakeBackend) DeleteMessage(ctx context.Context, id, messageID string) (*api.Discussion, error) {
	return nil, nil
}

func (f *fakeBackend) Profile(ctx context.Context) (*api.Profile, error) {
	return &api.Profile{User: api.User{ID: "me", Username: "me"}}, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, update api.ProfileUpdate) (*api.Profile, error) {
	return &api.Profile{User: api.User{ID: "me", Username: update.Username, Bio: update.Bio}}, nil
}

func (f *fakeBackend) AddFavorite(ctx context.Context, bookID string) error    { return nil }
func (f *fakeBackend) RemoveFavorite(ctx context.Context, bookID string) error { return nil }
func (f *fakeBackend) IsFavorite(ctx context.Context, bookID string) bool      { return false }

func (f *fakeBackend) listCalls() []api.BookQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.BookQuery(nil), f.queries...)
}

func (f *fakeBackend) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func (f *fakeBackend) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

// fakeAuth is an in-memory session. Like the real one, a stored token makes
// it authenticated while loading, and the user only appears once Bootstrap
// has fetched the profile.
type fakeAuth struct {
	mu        sync.Mutex
	user      api.User
	restored  api.User // user Bootstrap resolves the stored token to
	authed    bool
	loading   bool
	loginErr  error
	loggedOut bool
}

func (a *fakeAuth) Bootstrap(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if a.authed && a.restored.ID != "" {
		a.user = a.restored
	}
	return nil
}

func (a *fakeAuth) Login(ctx context.Context, email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loginErr != nil {
		return a.loginErr
	}
	a.authed = true
	a.loading = false
	a.user = api.User{ID: "me", Username: "me", Email: email}
	return nil
}

func (a *fakeAuth) Register(ctx context.Context, username, email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authed = true
	a.user = api.User{ID: "me", Username: username, Email: email}
	return nil
}

func (a *fakeAuth) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authed = false
	a.loggedOut = true
	a.user = api.User{}
}

func (a *fakeAuth) HandleError(err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	a.Logout()
	return true
}

func (a *fakeAuth) SetUser(u api.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = u
}

func (a *fakeAuth) User() api.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *fakeAuth) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

func (a *fakeAuth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func signedIn() *fakeAuth {
	return &fakeAuth{authed: true, user: api.User{ID: "me", Username: "me"}}
}

// restoring is a session with a stored token whose profile fetch has not
// finished yet.
func restoring() *fakeAuth {
	return &fakeAuth{authed: true, loading: true, restored: api.User{ID: "me", Username: "me"}}
}

type fakeRecommender struct {
	history []assistant.Turn
	prompt  string
	reply   string
	err     error
}

func (r *fakeRecommender) Recommend(ctx context.Context, history []assistant.Turn, prompt string) (string, error) {
	r.history = history
	r.prompt = prompt
	return r.reply, r.err
}

// newTestModel builds a sized model whose room poller never fires during a
// test.
func newTestModel(t *testing.T, backend Backend, auth Auth, p prefs.Prefs) Model {
	t.Helper()
	cfg := config.Default()
	cfg.PollInterval = time.Hour
	cfg.Debounce = 10 * time.Millisecond
	cfg.LogDir = t.TempDir()

	m := New(Options{
		Context:   context.Background(),
		Backend:   backend,
		Auth:      auth,
		Assistant: &fakeRecommender{reply: "Try Dune."},
		Config:    &cfg,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Prefs:     p,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = update(t, m, keyRunes(string(r)))
	}
	return m
}
