package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/prefs"
)

func TestLibrarySearch_DebouncedFetchCarriesSearchAndCategory(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, signedIn(), prefs.Prefs{Category: "Science Fiction"})

	m = update(t, m, keyRunes("/"))
	if !m.library.search.Focused() {
		t.Fatal("search input not focused after /")
	}
	m = typeText(t, m, "Dune")
	if got := m.library.search.Value(); got != "Dune" {
		t.Fatalf("search value = %q, want Dune", got)
	}
	if n := len(backend.listCalls()); n != 0 {
		t.Fatalf("ListBooks called %d times while typing, want 0", n)
	}

	// Ticks from earlier keystrokes are stale.
	for seq := 1; seq < m.library.seq; seq++ {
		if cmd := m.handleSearchDebounce(searchDebounceMsg{seq: seq}); cmd != nil {
			t.Fatalf("stale debounce seq %d produced a fetch", seq)
		}
	}

	m, cmd := updateCmd(t, m, searchDebounceMsg{seq: m.library.seq})
	if cmd == nil {
		t.Fatal("current debounce tick produced no fetch")
	}
	msg := cmd()
	m = update(t, m, msg)

	calls := backend.listCalls()
	if len(calls) != 1 {
		t.Fatalf("ListBooks called %d times, want 1", len(calls))
	}
	if calls[0].Search != "Dune" || calls[0].Category != "Science Fiction" {
		t.Fatalf("query = %+v, want search Dune in Science Fiction", calls[0])
	}
	if !m.library.loaded || len(m.library.list.Books) != 1 {
		t.Fatalf("library not updated from fetch: %+v", m.library.list)
	}
}

func TestLibrary_StaleResultsDropped(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, signedIn(), prefs.Prefs{})

	stale := m.library.seq
	cmd := m.fetchBooks()
	if cmd == nil {
		t.Fatal("fetchBooks returned nil")
	}
	m = update(t, m, booksLoadedMsg{seq: stale, list: api.BookList{Books: []api.Book{{ID: "old"}}}})
	if m.library.loaded {
		t.Fatal("stale result was applied")
	}
	m = update(t, m, cmd())
	if !m.library.loaded || m.library.list.Books[0].ID != "b1" {
		t.Fatalf("current result not applied: %+v", m.library.list)
	}
}

func TestLibrary_CategoryCycleFetchesImmediatelyAndPersists(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, signedIn(), prefs.Prefs{})

	m, cmd := updateCmd(t, m, keyRunes("c"))
	if cmd == nil {
		t.Fatal("category change produced no fetch")
	}
	_ = cmd()
	calls := backend.listCalls()
	if len(calls) != 1 || calls[0].Category != "Classic Literature" {
		t.Fatalf("calls = %+v, want one Classic Literature fetch", calls)
	}
	if m.prefs.Category != "Classic Literature" {
		t.Fatalf("prefs.Category = %q", m.prefs.Category)
	}
	saved, _ := prefs.Load(m.prefsPath)
	if saved.Category != "Classic Literature" {
		t.Fatalf("saved category = %q", saved.Category)
	}
}

func TestRoom_UnauthenticatedGoesToLoginWithoutFetching(t *testing.T) {
	backend := newFakeBackend("other")
	m := newTestModel(t, backend, &fakeAuth{}, prefs.Prefs{})

	m, _ = m.openRoom("d1")
	if m.view != ViewLogin {
		t.Fatalf("view = %v, want login", m.view)
	}
	if m.room.current != nil {
		t.Fatal("room opened without a session")
	}
	if m.login.redirect != ViewRoom || m.login.pendingRoom != "d1" {
		t.Fatalf("login target = %v/%q", m.login.redirect, m.login.pendingRoom)
	}
	if got := backend.getCount(); got != 0 {
		t.Fatalf("GetDiscussion called %d times", got)
	}
	if !m.login.form.active {
		t.Fatal("login form not accepting input")
	}
}

func TestRoom_LoginResumesPendingRoom(t *testing.T) {
	backend := newFakeBackend("me")
	auth := &fakeAuth{}
	m := newTestModel(t, backend, auth, prefs.Prefs{})

	m, _ = m.openRoom("d1")
	m.login.form.setValue(loginEmail, "me@example.com")
	m.login.form.setValue(loginPassword, "secret1")
	next, cmd := m.submitLogin()
	m = next.(Model)
	if cmd == nil {
		t.Fatal("submitLogin returned no command")
	}
	m = update(t, m, cmd())
	t.Cleanup(func() {
		if m.room.current != nil {
			m.room.current.Close()
		}
	})

	if m.view != ViewRoom {
		t.Fatalf("view = %v, want room", m.view)
	}
	if m.room.current == nil || m.room.current.ID() != "d1" {
		t.Fatal("pending room not opened after login")
	}
	if m.login.form.fields[loginPassword].input.Value() != "" {
		t.Fatal("password kept after login")
	}
}

func TestLogin_ErrorShownInline(t *testing.T) {
	auth := &fakeAuth{loginErr: &api.Error{StatusCode: 401, Message: "Invalid credentials"}}
	m := newTestModel(t, newFakeBackend(), auth, prefs.Prefs{})
	m, _ = m.navigate(ViewLogin)

	m.login.form.setValue(loginEmail, "me@example.com")
	m.login.form.setValue(loginPassword, "wrong")
	next, cmd := m.submitLogin()
	m = update(t, next.(Model), cmd())

	if m.view != ViewLogin {
		t.Fatalf("view = %v, want login", m.view)
	}
	if m.login.form.err != "Invalid credentials" {
		t.Fatalf("form error = %q", m.login.form.err)
	}
}

func TestLogin_ValidatesBeforeSubmitting(t *testing.T) {
	m := newTestModel(t, newFakeBackend(), &fakeAuth{}, prefs.Prefs{})
	m, _ = m.navigate(ViewLogin)

	m.login.form.setValue(loginEmail, "not-an-email")
	next, cmd := m.submitLogin()
	m = next.(Model)
	if cmd != nil || m.login.form.err == "" {
		t.Fatalf("invalid email accepted: err=%q", m.login.form.err)
	}

	m.login.toggleRegister()
	m.login.form.setValue(loginEmail, "me@example.com")
	m.login.form.setValue(loginPassword, "abc")
	m.login.form.setValue(loginUsername, "reader")
	next, cmd = m.submitLogin()
	m = next.(Model)
	if cmd != nil || !strings.Contains(m.login.form.err, "6 characters") {
		t.Fatalf("short password accepted: err=%q", m.login.form.err)
	}
}

// openTestRoom opens d1 and applies the initial load.
func openTestRoom(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = m.openRoom("d1")
	r := m.room.current
	if r == nil {
		t.Fatal("room not created")
	}
	t.Cleanup(r.Close)
	err := r.Open(context.Background())
	return update(t, m, roomOpenedMsg{room: r, err: err})
}

func TestRoom_NonParticipantCannotSend(t *testing.T) {
	backend := newFakeBackend("other")
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))

	if m.room.current.CanSend() {
		t.Fatal("non-participant can send")
	}
	m = update(t, m, keyRunes("i"))
	if m.room.input.Focused() {
		t.Fatal("input focused for a non-participant")
	}
	if !strings.Contains(m.status.text, "Join the discussion") {
		t.Fatalf("status = %q", m.status.text)
	}

	m.room.input.SetValue("hello")
	next, cmd := m.sendDraft()
	m = next.(Model)
	if cmd != nil {
		t.Fatal("send issued for a non-participant")
	}
	if len(backend.sent()) != 0 {
		t.Fatalf("SendMessage called: %v", backend.sent())
	}
	if !strings.Contains(m.renderRoom(), "Press J to join") {
		t.Fatal("join hint not rendered")
	}
}

func TestRoom_JoinEnablesInput(t *testing.T) {
	backend := newFakeBackend("other")
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))

	m, cmd := updateCmd(t, m, keyRunes("J"))
	if cmd == nil {
		t.Fatal("J issued no join")
	}
	m = update(t, m, cmd())
	if !m.room.current.CanSend() {
		t.Fatal("still not a participant after join")
	}
	if !m.room.input.Focused() {
		t.Fatal("input not focused after join")
	}
}

func TestRoom_DraftKeptOnSendFailureAndClearedOnSuccess(t *testing.T) {
	backend := newFakeBackend("me")
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))

	m = update(t, m, keyRunes("i"))
	if !m.room.input.Focused() {
		t.Fatal("input not focused for participant")
	}
	m.room.input.SetValue("hello")

	backend.mu.Lock()
	backend.sendErr = errors.New("connection refused")
	backend.mu.Unlock()

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.room.sending {
		t.Fatal("enter did not send")
	}
	m = update(t, m, cmd())
	if got := m.room.input.Value(); got != "hello" {
		t.Fatalf("draft after failure = %q, want hello", got)
	}
	if m.status.kind != statusError {
		t.Fatalf("status = %+v, want error", m.status)
	}

	backend.mu.Lock()
	backend.sendErr = nil
	backend.mu.Unlock()

	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, cmd())
	if got := m.room.input.Value(); got != "" {
		t.Fatalf("draft after success = %q, want empty", got)
	}
	if msgs := m.room.snap.Discussion.Messages; len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestRoom_EditedDraftSurvivesConfirmation(t *testing.T) {
	backend := newFakeBackend("me")
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))
	m = update(t, m, keyRunes("i"))
	m.room.input.SetValue("first")

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.room.input.SetValue("second thought")
	m = update(t, m, cmd())
	if got := m.room.input.Value(); got != "second thought" {
		t.Fatalf("input = %q, want the newer draft kept", got)
	}
}

func TestRoom_BlankDraftIgnored(t *testing.T) {
	backend := newFakeBackend("me")
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))
	m = update(t, m, keyRunes("i"))
	m.room.input.SetValue("   ")

	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("blank draft sent")
	}
}

func TestRoom_NotFoundReturnsToCommunity(t *testing.T) {
	backend := newFakeBackend("me")
	backend.getErr = &api.Error{StatusCode: 404}
	m := openTestRoom(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}))

	if m.view != ViewCommunity {
		t.Fatalf("view = %v, want community", m.view)
	}
	if m.room.current != nil {
		t.Fatal("room still open")
	}
	if m.status.text != "Discussion not found" {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestUnauthorizedResponseEndsSession(t *testing.T) {
	backend := newFakeBackend()
	auth := signedIn()
	m := newTestModel(t, backend, auth, prefs.Prefs{})
	m, _ = m.switchTo(ViewProfile)

	m = update(t, m, profileLoadedMsg{err: &api.Error{StatusCode: 401}})

	if m.view != ViewLogin {
		t.Fatalf("view = %v, want login", m.view)
	}
	if auth.Authenticated() {
		t.Fatal("session still authenticated")
	}
	if m.login.redirect != ViewProfile {
		t.Fatalf("redirect = %v, want profile", m.login.redirect)
	}
	if !strings.Contains(m.status.text, "Session expired") {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestUnauthorizedPollClosesRoom(t *testing.T) {
	backend := newFakeBackend("me")
	auth := signedIn()
	m := openTestRoom(t, newTestModel(t, backend, auth, prefs.Prefs{}))

	backend.mu.Lock()
	backend.getErr = &api.Error{StatusCode: 401}
	backend.mu.Unlock()
	m, cmd := updateCmd(t, m, keyRunes("r"))
	m = update(t, m, cmd())

	if m.view != ViewLogin || m.room.current != nil {
		t.Fatalf("view = %v, room open = %v", m.view, m.room.current != nil)
	}
}

func TestAuthGatedViewWaitsForBootstrap(t *testing.T) {
	auth := &fakeAuth{loading: true}
	m := newTestModel(t, newFakeBackend(), auth, prefs.Prefs{})

	m, _ = m.switchTo(ViewUpload)
	if m.view != ViewUpload {
		t.Fatalf("view = %v, want upload while restoring", m.view)
	}
	if !strings.Contains(m.renderContent(), "Restoring session") {
		t.Fatal("restoring spinner not shown")
	}

	auth.loading = false
	m = update(t, m, bootstrapDoneMsg{})
	if m.view != ViewLogin || m.login.redirect != ViewUpload {
		t.Fatalf("view = %v redirect = %v, want login -> upload", m.view, m.login.redirect)
	}
}

func TestAuthGatedViewWithStoredTokenResumesAfterBootstrap(t *testing.T) {
	auth := restoring()
	m := newTestModel(t, newFakeBackend(), auth, prefs.Prefs{})

	m, _ = m.switchTo(ViewProfile)
	if !strings.Contains(m.renderContent(), "Restoring session") {
		t.Fatal("restoring spinner not shown")
	}

	m, cmd := updateCmd(t, m, bootstrapCmd(context.Background(), auth)())
	if m.view != ViewProfile {
		t.Fatalf("view = %v, want profile", m.view)
	}
	if cmd == nil {
		t.Fatal("profile not fetched after bootstrap")
	}
}

func TestRoom_OpenedDuringRestoreWaitsForUser(t *testing.T) {
	backend := newFakeBackend("me")
	auth := restoring()
	m := newTestModel(t, backend, auth, prefs.Prefs{})

	m, _ = m.openRoom("d1")
	if m.room.current != nil {
		t.Fatal("room created before the user was known")
	}
	if m.view != ViewRoom || m.room.pendingID != "d1" {
		t.Fatalf("view = %v pending = %q", m.view, m.room.pendingID)
	}
	if got := backend.getCount(); got != 0 {
		t.Fatalf("GetDiscussion called %d times while restoring", got)
	}
	if !strings.Contains(m.renderRoom(), "Restoring session") {
		t.Fatal("restoring spinner not shown in room")
	}

	m = update(t, m, bootstrapCmd(context.Background(), auth)())
	r := m.room.current
	if r == nil {
		t.Fatal("pending room not opened after bootstrap")
	}
	t.Cleanup(r.Close)
	if got := r.Self().ID; got != "me" {
		t.Fatalf("room user = %q, want me", got)
	}

	m = update(t, m, roomOpenedMsg{room: r, err: r.Open(context.Background())})
	if !m.room.current.CanSend() {
		t.Fatal("participant cannot send after restore")
	}
}

func loadedBook(t *testing.T, m Model, backend *fakeBackend, id string) Model {
	t.Helper()
	m, _ = m.openBook(id)
	return update(t, m, fetchBookCmd(context.Background(), backend, id)())
}

func TestBook_OwnerEditSendsUpdateAndReturns(t *testing.T) {
	backend := newFakeBackend()
	backend.books.Books[0].UploadedBy = api.User{ID: "me"}
	backend.books.Books[0].Category = "Science Fiction"
	backend.books.Books[0].Description = "Spice and sand."
	m := loadedBook(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}), backend, "b1")

	m = update(t, m, keyRunes("e"))
	if m.view != ViewUpload || m.upload.editID != "b1" {
		t.Fatalf("view = %v editID = %q, want upload editing b1", m.view, m.upload.editID)
	}
	if got := m.upload.form.value(uploadTitle); got != "Dune" {
		t.Fatalf("title field = %q, want Dune", got)
	}
	if !strings.Contains(m.renderUpload(), "Edit Book") {
		t.Fatal("edit title not rendered")
	}

	m.upload.form.setValue(uploadTitle, "Dune Messiah")
	next, cmd := m.submitUpload()
	m = next.(Model)
	if cmd == nil {
		t.Fatal("save issued no request")
	}
	m, _ = updateCmd(t, m, cmd())

	backend.mu.Lock()
	updates := append([]api.BookInput(nil), backend.updates...)
	backend.mu.Unlock()
	if len(updates) != 1 || updates[0].Title != "Dune Messiah" || updates[0].Category != "Science Fiction" {
		t.Fatalf("updates = %+v, want one retitled Science Fiction book", updates)
	}
	if m.view != ViewBook {
		t.Fatalf("view = %v, want back on the book", m.view)
	}
	if m.upload.editID != "" || m.upload.form.value(uploadTitle) != "" {
		t.Fatal("edit state kept after save")
	}
	if !strings.Contains(m.status.text, "Dune Messiah") {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestBook_EditFailureKeepsForm(t *testing.T) {
	backend := newFakeBackend()
	backend.books.Books[0].UploadedBy = api.User{ID: "me"}
	backend.books.Books[0].Category = "Science Fiction"
	backend.books.Books[0].Description = "Spice and sand."
	backend.updateErr = &api.Error{StatusCode: 400, Message: "Title too long"}
	m := loadedBook(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}), backend, "b1")

	m = update(t, m, keyRunes("e"))
	next, cmd := m.submitUpload()
	m = update(t, next.(Model), cmd())
	if m.view != ViewUpload || m.upload.editID != "b1" {
		t.Fatalf("view = %v editID = %q, want still editing", m.view, m.upload.editID)
	}
	if m.upload.form.err != "Title too long" || m.upload.form.submitting {
		t.Fatalf("form err = %q submitting = %v", m.upload.form.err, m.upload.form.submitting)
	}
}

func TestBook_NonOwnerCannotEdit(t *testing.T) {
	backend := newFakeBackend()
	backend.books.Books[0].UploadedBy = api.User{ID: "other"}
	m := loadedBook(t, newTestModel(t, backend, signedIn(), prefs.Prefs{}), backend, "b1")

	m = update(t, m, keyRunes("e"))
	if m.view != ViewBook || m.upload.editID != "" {
		t.Fatalf("view = %v editID = %q, want book view unchanged", m.view, m.upload.editID)
	}
	if !strings.Contains(m.status.text, "Only the uploader") {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestUploadShortcutLeavesEditMode(t *testing.T) {
	backend := newFakeBackend()
	m := newTestModel(t, backend, signedIn(), prefs.Prefs{})
	next, _ := m.editBook(api.Book{ID: "b1", Title: "Dune"})
	m = next.(Model)
	m.upload.form.stop()
	m, _ = m.goBack()
	if m.upload.editID != "b1" {
		t.Fatalf("editID = %q, want edit kept while away", m.upload.editID)
	}

	m = update(t, m, keyRunes("5"))
	if m.view != ViewUpload {
		t.Fatalf("view = %v, want upload", m.view)
	}
	if m.upload.editID != "" || m.upload.form.value(uploadTitle) != "" {
		t.Fatal("upload shortcut opened the edit form")
	}
}

func TestBookDiscussion_EmptyBodyFallsBackToJoin(t *testing.T) {
	backend := newFakeBackend("me")
	backend.emptyBookDiscussion = true

	msg, ok := bookDiscussionCmd(context.Background(), backend, "b1")().(bookDiscussionMsg)
	if !ok {
		t.Fatal("unexpected message type")
	}
	if msg.err != nil || msg.discussionID != "d1" {
		t.Fatalf("msg = %+v, want d1 from join", msg)
	}
	if len(backend.joins) != 1 {
		t.Fatalf("joins = %v, want one", backend.joins)
	}
}

func TestLogoutRequiresConfirmation(t *testing.T) {
	auth := signedIn()
	m := newTestModel(t, newFakeBackend(), auth, prefs.Prefs{})

	m = update(t, m, keyRunes("a"))
	if m.modal == nil {
		t.Fatal("no confirmation shown")
	}
	m, cmd := updateCmd(t, m, keyRunes("y"))
	if cmd == nil {
		t.Fatal("confirm produced no command")
	}
	m = update(t, m, cmd())
	if !auth.loggedOut || m.status.text != "Logged out" {
		t.Fatalf("loggedOut=%v status=%q", auth.loggedOut, m.status.text)
	}
}

func TestAssistant_HistoryExcludesGreeting(t *testing.T) {
	rec := &fakeRecommender{reply: "Read Foundation."}
	m := newTestModel(t, newFakeBackend(), signedIn(), prefs.Prefs{})
	m.recommender = rec
	m, _ = m.switchTo(ViewAssistant)

	m.chat.input.SetValue("space opera")
	next, cmd := m.askAssistant()
	m = next.(Model)
	if !m.chat.waiting || cmd == nil {
		t.Fatal("prompt not sent")
	}
	m = update(t, m, cmd())

	if rec.prompt != "space opera" || len(rec.history) != 0 {
		t.Fatalf("prompt=%q history=%v", rec.prompt, rec.history)
	}
	last := m.chat.turns[len(m.chat.turns)-1]
	if last.Content != "Read Foundation." {
		t.Fatalf("last turn = %+v", last)
	}
	if got := len(m.chat.history()); got != 2 {
		t.Fatalf("history length = %d, want 2", got)
	}
}

func TestUploadInput(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.pdf")
	if err := os.WriteFile(bookPath, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	fill := func(title, author, category, desc, cover, file string) form {
		f := newUploadState().form
		for i, v := range []string{title, author, category, desc, cover, file} {
			f.setValue(i, v)
		}
		return f
	}

	tests := []struct {
		name    string
		form    form
		wantErr string
		check   func(api.BookInput) bool
	}{
		{
			name:    "missing title",
			form:    fill("", "Herbert", "Science Fiction", "Sand", "", ""),
			wantErr: "title is required",
		},
		{
			name:    "unknown category",
			form:    fill("Dune", "Herbert", "Poetry", "Sand", "", ""),
			wantErr: "category must be one of",
		},
		{
			name: "urls pass through",
			form: fill("Dune", "Herbert", "science fiction", "Sand", "https://x/c.jpg", "https://x/d.pdf"),
			check: func(in api.BookInput) bool {
				return in.Category == "Science Fiction" && in.Cover == "https://x/c.jpg" && in.FileURL == "https://x/d.pdf" && in.FilePath == ""
			},
		},
		{
			name: "local file becomes attachment",
			form: fill("Dune", "Herbert", "Science Fiction", "Sand", "", bookPath),
			check: func(in api.BookInput) bool {
				return in.FilePath == bookPath && in.FileURL == ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := uploadInput(tt.form)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("uploadInput: %v", err)
			}
			if !tt.check(in) {
				t.Fatalf("input = %+v", in)
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&api.Error{StatusCode: 401}, "Please log in again"},
		{&api.Error{StatusCode: 404}, "Not found"},
		{&api.Error{StatusCode: 400, Message: "Title is required"}, "Title is required"},
		{errors.New("dial tcp: connection refused"), "Cannot reach server"},
		{context.DeadlineExceeded, "Request timed out"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); got != tt.want {
			t.Errorf("describeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestViewsRender(t *testing.T) {
	backend := newFakeBackend("me")
	m := newTestModel(t, backend, signedIn(), prefs.Prefs{})
	for _, v := range []View{ViewLibrary, ViewBook, ViewUpload, ViewProfile, ViewCommunity, ViewRoom, ViewAssistant, ViewLogin} {
		m.view = v
		if out := m.View(); !strings.Contains(out, "folio") {
			t.Errorf("%v view missing header", v)
		}
	}

	m.showHelp = true
	if out := m.View(); !strings.Contains(out, "Keyboard Shortcuts") {
		t.Error("help overlay not rendered")
	}
}
