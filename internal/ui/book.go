package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
)

const (
	reviewRating = iota
	reviewComment
)

const defaultReviewRating = "5"

// bookState is the book detail view.
type bookState struct {
	id         string
	book       *api.Book
	loading    bool
	err        error
	reviews    []api.Review
	reviewsErr error
	favorite   bool

	downloadURL string
	downloading bool
	opening     bool

	review form
	scroll int
}

func newBookState() bookState {
	review := newForm(
		newField("Rating (1-5)", "5", 1),
		newField("Comment", "What did you think?", 1000),
	)
	review.setValue(reviewRating, defaultReviewRating)
	return bookState{review: review}
}

// Messages

type bookLoadedMsg struct {
	id   string
	book *api.Book
	err  error
}

type reviewsLoadedMsg struct {
	bookID  string
	reviews []api.Review
	err     error
}

type favoriteStatusMsg struct {
	bookID   string
	favorite bool
}

type favoriteToggledMsg struct {
	bookID   string
	favorite bool
	err      error
}

type downloadMsg struct {
	bookID   string
	download api.Download
	err      error
}

type reviewPostedMsg struct {
	bookID string
	err    error
}

type bookDeletedMsg struct {
	bookID string
	title  string
	err    error
}

type bookDiscussionMsg struct {
	bookID       string
	discussionID string
	err          error
}

// Commands

func fetchBookCmd(ctx context.Context, backend Backend, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		book, err := backend.GetBook(ctx, id)
		return bookLoadedMsg{id: id, book: book, err: err}
	}
}

func fetchReviewsCmd(ctx context.Context, backend Backend, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		reviews, err := backend.ListReviews(ctx, bookID)
		return reviewsLoadedMsg{bookID: bookID, reviews: reviews, err: err}
	}
}

func favoriteStatusCmd(ctx context.Context, backend Backend, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return favoriteStatusMsg{bookID: bookID, favorite: backend.IsFavorite(ctx, bookID)}
	}
}

func toggleFavoriteCmd(ctx context.Context, backend Backend, bookID string, add bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		var err error
		if add {
			err = backend.AddFavorite(ctx, bookID)
		} else {
			err = backend.RemoveFavorite(ctx, bookID)
		}
		return favoriteToggledMsg{bookID: bookID, favorite: add, err: err}
	}
}

func downloadCmd(ctx context.Context, backend Backend, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		dl, err := backend.DownloadBook(ctx, bookID)
		return downloadMsg{bookID: bookID, download: dl, err: err}
	}
}

func postReviewCmd(ctx context.Context, backend Backend, input api.ReviewInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		_, err := backend.CreateReview(ctx, input)
		return reviewPostedMsg{bookID: input.BookID, err: err}
	}
}

func deleteBookCmd(ctx context.Context, backend Backend, bookID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return bookDeletedMsg{bookID: bookID, title: title, err: backend.DeleteBook(ctx, bookID)}
	}
}

// bookDiscussionCmd finds the book's discussion, creating it by joining when
// the book has none yet.
func bookDiscussionCmd(ctx context.Context, backend Backend, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		d, err := backend.GetBookDiscussion(ctx, bookID)
		if errors.Is(err, api.ErrNotFound) || (err == nil && d == nil) {
			d, err = backend.JoinDiscussion(ctx, bookID)
		}
		if err == nil && d == nil {
			err = fmt.Errorf("no discussion for book %s", bookID)
		}
		if err != nil {
			return bookDiscussionMsg{bookID: bookID, err: err}
		}
		return bookDiscussionMsg{bookID: bookID, discussionID: d.ID}
	}
}

// openBook shows the detail view for id and starts loading it.
func (m Model) openBook(id string) (Model, tea.Cmd) {
	if id == "" || m.backend == nil {
		return m, nil
	}
	review := m.book.review
	review.stop()
	review.reset()
	review.setValue(reviewRating, defaultReviewRating)
	m.book = bookState{id: id, loading: true, review: review}

	next, navCmd := m.navigate(ViewBook)
	cmds := []tea.Cmd{
		navCmd,
		fetchBookCmd(m.ctx, m.backend, id),
		fetchReviewsCmd(m.ctx, m.backend, id),
	}
	if next.authenticated() {
		cmds = append(cmds, favoriteStatusCmd(m.ctx, m.backend, id))
	}
	return next, tea.Batch(cmds...)
}

func (m Model) handleBookLoaded(msg bookLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.book.id {
		return m, nil
	}
	m.book.loading = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.book.err = msg.err
		if errors.Is(msg.err, api.ErrNotFound) && m.view == ViewBook {
			m.setStatus("Book not found", statusError)
			next, cmd := m.goBack()
			fetch := next.fetchBooks()
			return next, tea.Batch(cmd, fetch)
		}
		m.setError("Could not load book", msg.err)
		return m, nil
	}
	m.book.err = nil
	m.book.book = msg.book
	return m, nil
}

func (m Model) handleReviewsLoaded(msg reviewsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.bookID != m.book.id {
		return m, nil
	}
	m.book.reviewsErr = msg.err
	if msg.err == nil {
		m.book.reviews = msg.reviews
	}
	return m, nil
}

func (m Model) handleFavoriteToggled(msg favoriteToggledMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.setError("Could not update favorites", msg.err)
		return m, nil
	}
	if msg.bookID == m.book.id {
		m.book.favorite = msg.favorite
	}
	m.profile.loaded = false
	m.setStatus(ternary(msg.favorite, "Added to favorites", "Removed from favorites"), statusSuccess)
	return m, nil
}

// handleDownload records the download intent result and surfaces the file
// link; the terminal cannot open it, so the URL is shown for copying.
func (m Model) handleDownload(msg downloadMsg) (tea.Model, tea.Cmd) {
	if msg.bookID != m.book.id {
		return m, nil
	}
	m.book.downloading = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.setError("Download failed", msg.err)
		return m, nil
	}
	url := msg.download.FileURL
	if url == "" && m.book.book != nil {
		url = m.book.book.FileURL
	}
	if url == "" {
		m.setStatus("Download link not available", statusError)
		return m, nil
	}
	m.book.downloadURL = url
	if m.book.book != nil && msg.download.Downloads > 0 {
		m.book.book.Downloads = msg.download.Downloads
	}
	m.setStatus("Download: "+url, statusSuccess)
	return m, nil
}

func (m Model) handleReviewPosted(msg reviewPostedMsg) (tea.Model, tea.Cmd) {
	m.book.review.submitting = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.book.review.err = api.Reason(msg.err, "Failed to submit review")
		return m, nil
	}
	m.book.review.stop()
	m.book.review.reset()
	m.book.review.setValue(reviewRating, defaultReviewRating)
	m.setStatus("Review posted", statusSuccess)
	if msg.bookID != m.book.id {
		return m, nil
	}
	return m, tea.Batch(
		fetchReviewsCmd(m.ctx, m.backend, msg.bookID),
		fetchBookCmd(m.ctx, m.backend, msg.bookID),
	)
}

func (m Model) handleBookDeleted(msg bookDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.setError("Could not delete book", msg.err)
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Deleted %q", msg.title), statusSuccess)
	m.profile.loaded = false
	if m.view == ViewBook && m.book.id == msg.bookID {
		next, cmd := m.goBack()
		fetch := next.fetchBooks()
		return next, tea.Batch(cmd, fetch)
	}
	cmd := m.fetchBooks()
	return m, cmd
}

func (m Model) handleBookDiscussion(msg bookDiscussionMsg) (tea.Model, tea.Cmd) {
	if msg.bookID != m.book.id {
		return m, nil
	}
	m.book.opening = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.setError("Could not open discussion", msg.err)
		return m, nil
	}
	return m.openRoom(msg.discussionID)
}

// ownsBook reports whether the current user uploaded the open book.
func (m Model) ownsBook() bool {
	if m.book.book == nil || !m.authenticated() {
		return false
	}
	self := m.auth.User().ID
	return self != "" && m.book.book.UploadedBy.ID == self
}

func (m Model) handleBookKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.book.review.active {
		return m.handleReviewFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Down):
		m.book.scroll++
	case key.Matches(msg, m.keys.Up):
		if m.book.scroll > 0 {
			m.book.scroll--
		}
	case key.Matches(msg, m.keys.Top):
		m.book.scroll = 0
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(fetchBookCmd(m.ctx, m.backend, m.book.id), fetchReviewsCmd(m.ctx, m.backend, m.book.id))
	case key.Matches(msg, m.keys.Download):
		if m.book.downloading {
			return m, nil
		}
		m.book.downloading = true
		return m, downloadCmd(m.ctx, m.backend, m.book.id)
	case key.Matches(msg, m.keys.Favorite):
		if !m.authenticated() {
			return m.requireLogin(ViewBook, "")
		}
		return m, toggleFavoriteCmd(m.ctx, m.backend, m.book.id, !m.book.favorite)
	case key.Matches(msg, m.keys.Discuss):
		if !m.authenticated() {
			return m.requireLogin(ViewBook, "")
		}
		if m.book.opening {
			return m, nil
		}
		m.book.opening = true
		return m, bookDiscussionCmd(m.ctx, m.backend, m.book.id)
	case key.Matches(msg, m.keys.WriteReview):
		if !m.authenticated() {
			return m.requireLogin(ViewBook, "")
		}
		cmd := m.book.review.start()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		if !m.ownsBook() {
			if m.book.book != nil {
				m.setStatus("Only the uploader can edit this book", statusError)
			}
			return m, nil
		}
		return m.editBook(*m.book.book)
	case key.Matches(msg, m.keys.Delete):
		if !m.ownsBook() {
			if m.book.book != nil {
				m.setStatus("Only the uploader can delete this book", statusError)
			}
			return m, nil
		}
		book := *m.book.book
		ctx, backend := m.ctx, m.backend
		m.modal = newConfirmModal("Delete book", fmt.Sprintf("Delete %q? This cannot be undone.", book.Title), "Delete", func() tea.Cmd {
			return deleteBookCmd(ctx, backend, book.ID, book.Title)
		})
	}
	return m, nil
}

func (m Model) handleReviewFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.book.review
	switch {
	case msg.Type == tea.KeyEsc:
		f.stop()
		f.err = ""
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab:
		if msg.Type == tea.KeyTab {
			cmd := f.next()
			return m, cmd
		}
		cmd := f.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && f.onLast():
		return m.submitReview()
	case msg.Type == tea.KeyEnter:
		cmd := f.next()
		return m, cmd
	}
	cmd := f.update(msg)
	return m, cmd
}

// submitReview validates the form locally and posts the review. The rating
// range check is a convenience; the server decides.
func (m Model) submitReview() (tea.Model, tea.Cmd) {
	f := &m.book.review
	if f.submitting {
		return m, nil
	}
	if !m.authenticated() {
		return m.requireLogin(ViewBook, "")
	}
	rating, err := strconv.Atoi(f.value(reviewRating))
	if err != nil || rating < 1 || rating > 5 {
		f.err = "Rating must be a number from 1 to 5"
		return m, nil
	}
	f.err = ""
	f.submitting = true
	return m, postReviewCmd(m.ctx, m.backend, api.ReviewInput{
		BookID:  m.book.id,
		Rating:  rating,
		Comment: f.value(reviewComment),
	})
}

// renderBook renders the book detail and its reviews.
func (m Model) renderBook() string {
	height := m.contentHeight()
	st := m.book
	if st.book == nil {
		if st.loading {
			return m.renderWaiting("Loading book...")
		}
		styles := m.theme.Styles()
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, styles.MutedText.Render("Book not found"))
	}

	if m.width < LayoutWideWidth {
		content := m.bookDetailLines(m.width-4, m.panelBg(true))
		content = append(content, "")
		content = append(content, m.reviewLines(m.width-4, m.panelBg(true))...)
		content = scrollLines(content, st.scroll, height-2)
		return m.renderTitledBox(st.book.Title, strings.Join(content, "\n"), m.width, height, true)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth
	left := m.renderTitledBox(st.book.Title, strings.Join(m.bookDetailLines(leftWidth-4, m.panelBg(true)), "\n"), leftWidth, height, true)
	reviews := scrollLines(m.reviewLines(rightWidth-4, m.panelBg(false)), st.scroll, height-2)
	right := m.renderTitledBox(fmt.Sprintf("Reviews (%d)", len(st.reviews)), strings.Join(reviews, "\n"), rightWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) bookDetailLines(width int, bgColor string) []string {
	book := *m.book.book
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	field := func(label, value string, style lipgloss.Style) string {
		return bg.Render(padRight(label, 12), styles.FaintText) + bg.Render(truncate(value, max(width-12, 4)), style)
	}

	favorite := "☆ Not in favorites"
	if m.book.favorite {
		favorite = "★ In favorites"
	}

	lines := []string{
		bg.Render(truncate(book.Title, width), styles.Text.Bold(true)),
		bg.Render("by "+truncate(book.Author, width-3), styles.MutedText),
		"",
		field("Category", book.Category, styles.AccentText),
		field("Rating", formatRating(book.Rating, book.Votes), styles.WarningText),
		field("Downloads", strconv.Itoa(book.Downloads), styles.Text),
		field("Uploaded by", ternary(book.UploadedBy.Username != "", book.UploadedBy.Username, "Unknown"), styles.Text),
		field("Uploaded", formatDate(book.ParsedCreatedAt()), styles.Text),
	}
	if m.authenticated() {
		lines = append(lines, field("Favorite", favorite, styles.InfoText))
	}
	if m.book.downloadURL != "" {
		lines = append(lines, field("File", truncateMiddle(m.book.downloadURL, width-12), styles.SuccessText))
	}
	if book.Cover != "" {
		lines = append(lines, field("Cover", truncateMiddle(book.Cover, width-12), styles.MutedText))
	}

	lines = append(lines, "", bg.Render("Description", styles.AccentText))
	desc := strings.TrimSpace(book.Description)
	if desc == "" {
		desc = "No description."
	}
	for _, l := range wrapText(desc, width) {
		lines = append(lines, bg.Render(l, styles.Text))
	}

	var hints []string
	hints = append(hints, "d download", "m discussion")
	if m.authenticated() {
		hints = append(hints, "f favorite", "w review")
	}
	if m.ownsBook() {
		hints = append(hints, "e edit", "x delete")
	}
	if m.book.opening {
		hints = append(hints, "opening discussion...")
	}
	lines = append(lines, "", bg.Render(strings.Join(hints, " · "), styles.FaintText))
	return lines
}

func (m Model) reviewLines(width int, bgColor string) []string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	var lines []string
	if m.book.review.active {
		lines = append(lines, bg.Render("Write a review", styles.AccentText.Bold(true)))
		lines = append(lines, strings.Split(m.book.review.view(m.theme, width, bgColor), "\n")...)
		lines = append(lines, bg.Render("enter next · ctrl+s submit · esc cancel", styles.FaintText), "")
	}

	switch {
	case m.book.reviewsErr != nil:
		lines = append(lines, bg.Render("Could not load reviews", styles.DangerText))
	case len(m.book.reviews) == 0:
		lines = append(lines, bg.Render("No reviews yet. Be the first to review!", styles.MutedText))
	}
	for _, r := range m.book.reviews {
		header := bg.Render(r.User.DisplayName(), styles.Text.Bold(true)) + bg.Space() +
			bg.Render(stars(r.Rating), styles.WarningText)
		if d := formatDate(r.ParsedCreatedAt()); d != "" {
			header += bg.Space() + bg.Render(d, styles.FaintText)
		}
		lines = append(lines, header)
		for _, l := range wrapText(r.Comment, width) {
			lines = append(lines, bg.Render(l, styles.MutedText))
		}
		lines = append(lines, "")
	}
	return lines
}

// scrollLines returns the window of lines starting at offset, clamped so the
// last page stays full.
func scrollLines(lines []string, offset, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	offset = min(max(offset, 0), len(lines)-height)
	return lines[offset : offset+height]
}
