package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/prefs"
)

// categories are the library filter values; "all" means no filter.
var categories = []string{
	"all",
	"Classic Literature",
	"Science Fiction",
	"Romance",
	"Mystery",
	"Non-Fiction",
	"Biography",
}

type sortOption struct {
	value string
	label string
}

var sortOptions = []sortOption{
	{value: "-createdAt", label: "Newest"},
	{value: "-rating", label: "Top rated"},
	{value: "-votes", label: "Most voted"},
}

// libraryState holds the book list and its filters. seq increases with every
// query change; results and debounce ticks carrying an older seq are dropped.
type libraryState struct {
	search   textinput.Model
	category int
	sort     int
	page     int
	seq      int

	list     api.BookList
	loaded   bool
	loading  bool
	err      error
	selected int
}

func newLibraryState(p prefs.Prefs) libraryState {
	ti := textinput.New()
	ti.Placeholder = "Search title or author..."
	ti.CharLimit = 100
	ti.Prompt = "/ "

	state := libraryState{search: ti, page: 1}
	for i, c := range categories {
		if strings.EqualFold(c, p.Category) {
			state.category = i
		}
	}
	for i, s := range sortOptions {
		if s.value == p.Sort {
			state.sort = i
		}
	}
	return state
}

// query is the request for the current filters. Search and category always
// travel together.
func (s libraryState) query() api.BookQuery {
	return api.BookQuery{
		Search:   strings.TrimSpace(s.search.Value()),
		Category: categories[s.category],
		Sort:     sortOptions[s.sort].value,
		Limit:    libraryPageSize,
		Page:     s.page,
	}
}

func (s libraryState) selectedBook() (api.Book, bool) {
	if s.selected < 0 || s.selected >= len(s.list.Books) {
		return api.Book{}, false
	}
	return s.list.Books[s.selected], true
}

// Messages

type searchDebounceMsg struct{ seq int }

type booksLoadedMsg struct {
	seq  int
	list api.BookList
	err  error
}

// Commands

func fetchBooksCmd(ctx context.Context, backend Backend, seq int, query api.BookQuery) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		list, err := backend.ListBooks(ctx, query)
		return booksLoadedMsg{seq: seq, list: list, err: err}
	}
}

func debounceCmd(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	})
}

// fetchBooks issues a fetch for the current filters right away.
func (m *Model) fetchBooks() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	m.library.seq++
	m.library.loading = true
	return fetchBooksCmd(m.ctx, m.backend, m.library.seq, m.library.query())
}

// scheduleSearch restarts the debounce window after a keystroke.
func (m *Model) scheduleSearch() tea.Cmd {
	m.library.seq++
	m.library.page = 1
	return debounceCmd(m.debounce, m.library.seq)
}

// handleSearchDebounce fires the fetch when no keystroke arrived during the
// debounce window.
func (m *Model) handleSearchDebounce(msg searchDebounceMsg) tea.Cmd {
	if msg.seq != m.library.seq || m.backend == nil {
		return nil
	}
	m.library.loading = true
	return fetchBooksCmd(m.ctx, m.backend, msg.seq, m.library.query())
}

func (m Model) handleBooksLoaded(msg booksLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.library.seq {
		return m, nil
	}
	m.library.loading = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.library.err = msg.err
		m.setError("Could not load books", msg.err)
		return m, nil
	}
	m.library.err = nil
	m.library.loaded = true
	m.library.list = msg.list
	if m.library.selected >= len(msg.list.Books) {
		m.library.selected = max(len(msg.list.Books)-1, 0)
	}
	return m, nil
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lib := &m.library

	if lib.search.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			lib.search.Blur()
			return m, nil
		case tea.KeyEnter:
			lib.search.Blur()
			lib.page = 1
			cmd := m.fetchBooks()
			return m, cmd
		}
		before := lib.search.Value()
		var cmd tea.Cmd
		lib.search, cmd = lib.search.Update(msg)
		if lib.search.Value() == before {
			return m, cmd
		}
		search := m.scheduleSearch()
		return m, tea.Batch(cmd, search)
	}

	count := len(lib.list.Books)
	switch {
	case key.Matches(msg, m.keys.Search):
		cmd := lib.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		if lib.search.Value() != "" {
			lib.search.SetValue("")
			lib.page = 1
			cmd := m.fetchBooks()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Down):
		if lib.selected < count-1 {
			lib.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if lib.selected > 0 {
			lib.selected--
		}
	case key.Matches(msg, m.keys.Top):
		lib.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		lib.selected = max(count-1, 0)
	case key.Matches(msg, m.keys.Open):
		if book, ok := lib.selectedBook(); ok {
			return m.openBook(book.ID)
		}
	case key.Matches(msg, m.keys.Category):
		lib.category = (lib.category + 1) % len(categories)
		lib.page = 1
		m.prefs.Category = ternary(lib.category == 0, "", categories[lib.category])
		m.savePrefs()
		cmd := m.fetchBooks()
		return m, cmd
	case key.Matches(msg, m.keys.Sort):
		lib.sort = (lib.sort + 1) % len(sortOptions)
		lib.page = 1
		m.prefs.Sort = sortOptions[lib.sort].value
		m.savePrefs()
		cmd := m.fetchBooks()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.fetchBooks()
		return m, cmd
	case key.Matches(msg, m.keys.NextPage):
		if lib.list.Pages > 0 && lib.page < lib.list.Pages {
			lib.page++
			lib.selected = 0
			cmd := m.fetchBooks()
			return m, cmd
		}
	case key.Matches(msg, m.keys.PrevPage):
		if lib.page > 1 {
			lib.page--
			lib.selected = 0
			cmd := m.fetchBooks()
			return m, cmd
		}
	}
	return m, nil
}

// renderLibrary renders the filter bar and book list, with a preview pane on
// wide terminals.
func (m Model) renderLibrary() string {
	height := m.contentHeight()
	lib := m.library

	listWidth := m.width
	showPreview := m.width >= LayoutCompactWidth
	if showPreview {
		listWidth = m.width * 55 / 100
	}

	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	inner := max(listWidth-4, 10)

	var lines []string
	search := lib.search
	search.Width = inner - 4
	lines = append(lines, bg.FillLine(search.View(), inner))

	filters := bg.Render("Category:", styles.MutedText) + bg.Space() +
		bg.Render(categoryLabel(categories[lib.category]), styles.AccentText) + bg.Spaces(3) +
		bg.Render("Sort:", styles.MutedText) + bg.Space() +
		bg.Render(sortOptions[lib.sort].label, styles.AccentText)
	lines = append(lines, filters, "")

	switch {
	case lib.loading && !lib.loaded:
		lines = append(lines, m.spinner.View()+bg.Space()+bg.Render("Loading books...", styles.MutedText))
	case lib.err != nil && !lib.loaded:
		lines = append(lines, bg.Render("Could not load books. Press r to retry.", styles.DangerText))
	case len(lib.list.Books) == 0:
		lines = append(lines, bg.Render("No books found", styles.MutedText))
	default:
		rows := height - 2 - len(lines)
		lines = append(lines, m.renderBookRows(inner, rows)...)
	}

	title := fmt.Sprintf("Library · %d books", lib.list.Total)
	if lib.list.Pages > 1 {
		title += fmt.Sprintf(" · page %d/%d", max(lib.page, 1), lib.list.Pages)
	}
	if lib.loading && lib.loaded {
		title += " · refreshing"
	}
	listPane := m.renderTitledBox(title, strings.Join(lines, "\n"), listWidth, height, true)
	if !showPreview {
		return listPane
	}

	previewWidth := m.width - listWidth
	preview := ""
	if book, ok := lib.selectedBook(); ok {
		preview = m.renderBookPreview(book, previewWidth-4, m.panelBg(false))
	}
	previewPane := m.renderTitledBox("Preview", preview, previewWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)
}

// renderBookRows renders the visible window of the list around the selection.
func (m Model) renderBookRows(width, rows int) []string {
	books := m.library.list.Books
	rows = max(rows, 1)
	start := 0
	if m.library.selected >= rows {
		start = m.library.selected - rows + 1
	}
	end := min(start+rows, len(books))

	bgColor := m.panelBg(true)
	var lines []string
	for i := start; i < end; i++ {
		book := books[i]
		selected := i == m.library.selected
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		bg := NewBgStyle(rowBg)
		styles := m.theme.Styles()
		titleStyle, metaStyle := styles.Text, styles.MutedText
		if selected {
			sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
			titleStyle, metaStyle = sel.Bold(true), sel
		}

		rating := ""
		if book.Votes > 0 {
			rating = fmt.Sprintf("★ %.1f", book.Rating)
		}
		meta := strings.TrimSpace(book.Author + "  " + rating)
		titleWidth := max(width-lipgloss.Width(meta)-3, 10)
		content := bg.Render(truncate(book.Title, titleWidth), titleStyle) + bg.Spaces(2) + bg.Render(meta, metaStyle)
		lines = append(lines, bg.FillLine(content, width))
	}
	return lines
}

// renderBookPreview renders a compact summary used beside the list.
func (m Model) renderBookPreview(book api.Book, width int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	lines := []string{
		bg.Render(truncate(book.Title, width), styles.Text.Bold(true)),
		bg.Render("by "+truncate(book.Author, width-3), styles.MutedText),
		"",
		bg.Render("Category", styles.FaintText) + bg.Space() + bg.Render(book.Category, styles.AccentText),
		bg.Render("Rating", styles.FaintText) + bg.Space() + bg.Render(formatRating(book.Rating, book.Votes), styles.WarningText),
		bg.Render("Downloads", styles.FaintText) + bg.Space() + bg.Render(fmt.Sprintf("%d", book.Downloads), styles.Text),
		"",
	}
	for _, l := range wrapText(book.Description, width) {
		lines = append(lines, bg.Render(l, styles.Text))
	}
	return strings.Join(lines, "\n")
}

func categoryLabel(c string) string {
	if c == "all" {
		return "All categories"
	}
	return c
}
