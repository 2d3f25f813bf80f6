package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
)

const (
	uploadTitle = iota
	uploadAuthor
	uploadCategory
	uploadDescription
	uploadCover
	uploadFile
)

const defaultUploadCategory = "Classic Literature"

type uploadState struct {
	form form
	// editID is the book being edited; empty when sharing a new one.
	editID string
}

func newUploadState() uploadState {
	f := newForm(
		newField("Title *", "Book title", 200),
		newField("Author *", "Author name", 200),
		newField("Category *", defaultUploadCategory, 40),
		newField("Description *", "What is it about?", 2000),
		newField("Cover", "Image URL or local file", 500),
		newField("File", "Book URL or local file", 500),
	)
	f.setValue(uploadCategory, defaultUploadCategory)
	return uploadState{form: f}
}

// clear empties the form for a new upload.
func (s *uploadState) clear() {
	s.form.stop()
	s.form.reset()
	s.form.setValue(uploadCategory, defaultUploadCategory)
	s.editID = ""
}

// Messages

type bookCreatedMsg struct {
	book *api.Book
	err  error
}

type bookUpdatedMsg struct {
	bookID string
	book   *api.Book
	err    error
}

func createBookCmd(ctx context.Context, backend Backend, input api.BookInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		book, err := backend.CreateBook(ctx, input)
		return bookCreatedMsg{book: book, err: err}
	}
}

func updateBookCmd(ctx context.Context, backend Backend, id string, input api.BookInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		book, err := backend.UpdateBook(ctx, id, input)
		return bookUpdatedMsg{bookID: id, book: book, err: err}
	}
}

// uploadInput builds the request from the form. Cover and file values that
// name an existing local file are sent as multipart attachments; anything
// else is passed through as a URL.
func uploadInput(f form) (api.BookInput, error) {
	input := api.BookInput{
		Title:       f.value(uploadTitle),
		Author:      f.value(uploadAuthor),
		Category:    f.value(uploadCategory),
		Description: f.value(uploadDescription),
	}
	switch {
	case input.Title == "":
		return input, fmt.Errorf("title is required")
	case input.Author == "":
		return input, fmt.Errorf("author is required")
	case input.Description == "":
		return input, fmt.Errorf("description is required")
	}

	category, ok := matchCategory(input.Category)
	if !ok {
		return input, fmt.Errorf("category must be one of: %s", strings.Join(categories[1:], ", "))
	}
	input.Category = category

	if path, ok := localFile(f.value(uploadCover)); ok {
		input.CoverPath = path
	} else {
		input.Cover = f.value(uploadCover)
	}
	if path, ok := localFile(f.value(uploadFile)); ok {
		input.FilePath = path
	} else {
		input.FileURL = f.value(uploadFile)
	}
	return input, nil
}

// matchCategory resolves a typed category case-insensitively.
func matchCategory(value string) (string, bool) {
	for _, c := range categories[1:] {
		if strings.EqualFold(c, strings.TrimSpace(value)) {
			return c, true
		}
	}
	return "", false
}

// localFile reports whether value is a path to a regular file on disk.
func localFile(value string) (string, bool) {
	if value == "" || strings.Contains(value, "://") {
		return "", false
	}
	if strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		value = filepath.Join(home, value[2:])
	}
	info, err := os.Stat(value)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return value, true
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.upload.form
	if !f.active {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m.goBack()
		case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Compose):
			cmd := f.start()
			return m, cmd
		}
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyEsc:
		f.stop()
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyDown:
		cmd := f.next()
		return m, cmd
	case msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
		cmd := f.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && f.onLast():
		return m.submitUpload()
	case msg.Type == tea.KeyEnter:
		cmd := f.next()
		return m, cmd
	}
	cmd := f.update(msg)
	return m, cmd
}

func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	f := &m.upload.form
	if f.submitting || m.backend == nil {
		return m, nil
	}
	input, err := uploadInput(*f)
	if err != nil {
		f.err = capitalize(err.Error())
		return m, nil
	}
	f.err = ""
	f.submitting = true
	if id := m.upload.editID; id != "" {
		return m, updateBookCmd(m.ctx, m.backend, id, input)
	}
	return m, createBookCmd(m.ctx, m.backend, input)
}

// editBook opens the upload form filled with book's fields. Saving sends
// the form as an update instead of a new upload.
func (m Model) editBook(book api.Book) (tea.Model, tea.Cmd) {
	m.upload.clear()
	m.upload.editID = book.ID
	f := &m.upload.form
	f.setValue(uploadTitle, book.Title)
	f.setValue(uploadAuthor, book.Author)
	f.setValue(uploadCategory, book.Category)
	f.setValue(uploadDescription, book.Description)
	f.setValue(uploadCover, book.Cover)
	f.setValue(uploadFile, book.FileURL)
	return m.navigate(ViewUpload)
}

func (m Model) handleBookUpdated(msg bookUpdatedMsg) (tea.Model, tea.Cmd) {
	if msg.bookID != m.upload.editID {
		return m, nil
	}
	f := &m.upload.form
	f.submitting = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		f.err = api.Reason(msg.err, "Failed to update book")
		return m, nil
	}
	title := f.value(uploadTitle)
	if msg.book != nil && msg.book.Title != "" {
		title = msg.book.Title
	}
	m.upload.clear()
	m.profile.loaded = false
	m.setStatus(fmt.Sprintf("Updated %q", title), statusSuccess)
	if m.view != ViewUpload {
		cmd := m.fetchBooks()
		return m, cmd
	}
	next, cmd := m.goBack()
	fetch := next.fetchBooks()
	if next.view == ViewBook && next.book.id == msg.bookID {
		return next, tea.Batch(cmd, fetch, fetchBookCmd(next.ctx, next.backend, msg.bookID))
	}
	return next, tea.Batch(cmd, fetch)
}

func (m Model) handleBookCreated(msg bookCreatedMsg) (tea.Model, tea.Cmd) {
	f := &m.upload.form
	f.submitting = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		f.err = api.Reason(msg.err, "Failed to upload book")
		return m, nil
	}
	title := ""
	if msg.book != nil {
		title = msg.book.Title
	}
	f.reset()
	f.setValue(uploadCategory, defaultUploadCategory)
	m.profile.loaded = false
	m.setStatus(fmt.Sprintf("Uploaded %q", title), statusSuccess)

	next, cmd := m.switchTo(ViewLibrary)
	fetch := next.fetchBooks()
	return next, tea.Batch(cmd, fetch)
}

func (m Model) renderUpload() string {
	height := m.contentHeight()
	width := min(m.width, 90)
	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	lines := []string{
		bg.Render("Share a book with the community.", styles.MutedText),
		bg.Render("Categories: "+strings.Join(categories[1:], ", "), styles.FaintText),
		"",
	}
	lines = append(lines, strings.Split(m.upload.form.view(m.theme, width-4, bgColor), "\n")...)
	lines = append(lines, "")
	action, title := "upload", "Upload a Book"
	if m.upload.editID != "" {
		action, title = "save", "Edit Book"
		lines[0] = bg.Render("Update the details of your book.", styles.MutedText)
	}
	if m.upload.form.active {
		lines = append(lines, bg.Render("tab next · ctrl+s "+action+" · esc stop editing", styles.FaintText))
	} else {
		lines = append(lines, bg.Render("enter edit · esc back", styles.FaintText))
	}
	lines = scrollLines(lines, m.upload.form.focus*3-height/2, height-2)
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

// capitalize upper-cases the first letter of a validation message.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
