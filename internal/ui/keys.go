package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	Logs       key.Binding
	CycleTheme key.Binding
	Back       key.Binding
	Account    key.Binding

	// View switching
	ViewLibrary   key.Binding
	ViewCommunity key.Binding
	ViewAssistant key.Binding
	ViewProfile   key.Binding
	ViewUpload    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding

	// Library
	Search      key.Binding
	Category    key.Binding
	Sort        key.Binding
	Refresh     key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	Favorite    key.Binding
	Download    key.Binding
	Discuss     key.Binding
	WriteReview key.Binding
	Delete      key.Binding

	// Room
	Join    key.Binding
	Compose key.Binding

	// Profile
	Edit key.Binding

	// Logs
	ToggleFollow key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Confirm   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Diagnostics log"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Account: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Log in / log out"),
		),

		ViewLibrary: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Library"),
		),
		ViewCommunity: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Community"),
		),
		ViewAssistant: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Assistant"),
		),
		ViewProfile: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Profile"),
		),
		ViewUpload: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Upload"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Category: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cycle category"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous page"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle favorite"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Download"),
		),
		Discuss: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Open discussion"),
		),
		WriteReview: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Write review"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Delete"),
		),

		Join: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "Join discussion"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Write message"),
		),

		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit profile or own book"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle follow"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Submit form"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewLibrary, k.ViewCommunity, k.ViewAssistant, k.ViewProfile, k.ViewUpload, k.Back},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Open},
		{k.Search, k.Category, k.Sort, k.Refresh, k.PrevPage, k.NextPage},
		{k.Favorite, k.Download, k.Discuss, k.WriteReview, k.Delete},
		{k.Join, k.Compose},
		{k.Edit, k.NextField, k.PrevField, k.Submit},
		{k.ToggleFollow, k.NextMatch, k.PrevMatch},
		{k.Account, k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}
