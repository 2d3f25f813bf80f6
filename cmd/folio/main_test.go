package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/folio/internal/api"
)

func TestRootFlags_ValidateTheme(t *testing.T) {
	for _, name := range []string{"", "Nightfox", "Kanagawa", "Dayfox"} {
		if err := (rootFlags{theme: name}).validate(); err != nil {
			t.Fatalf("validate(%q) = %v, want nil", name, err)
		}
	}
	err := rootFlags{theme: "Solarized"}.validate()
	if err == nil || !strings.Contains(err.Error(), "Nightfox") {
		t.Fatalf("validate(Solarized) = %v, want error listing themes", err)
	}
}

func TestRootCommand_ThemeHelpListsThemes(t *testing.T) {
	flag := newRootCommand().PersistentFlags().Lookup("theme")
	if flag == nil {
		t.Fatal("theme flag missing")
	}
	for _, name := range []string{"Nightfox", "Kanagawa", "Dayfox"} {
		if !strings.Contains(flag.Usage, name) {
			t.Fatalf("theme usage = %q, missing %s", flag.Usage, name)
		}
	}
}

func TestRootCommand_UnknownThemeFailsBeforeRunning(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--theme", "Solarized", "logout"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown theme") {
		t.Fatalf("Execute = %v, want unknown theme error", err)
	}
}

func TestEditedBook_AppliesOnlyChangedFlags(t *testing.T) {
	current := api.Book{
		ID:          "b1",
		Title:       "Dune",
		Author:      "Frank Herbert",
		Category:    "Science Fiction",
		Description: "Spice and sand.",
		Cover:       "http://x/dune.png",
		FileURL:     "http://x/dune.pdf",
	}
	cover := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(cover, []byte("png"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	flagged := api.BookInput{Title: "Dune Messiah", Author: "ignored", Cover: cover}
	changed := func(name string) bool { return name == "title" || name == "cover" }

	got := editedBook(current, flagged, changed)
	want := api.BookInput{
		Title:       "Dune Messiah",
		Author:      "Frank Herbert",
		Category:    "Science Fiction",
		Description: "Spice and sand.",
		CoverPath:   cover,
		FileURL:     "http://x/dune.pdf",
	}
	if got != want {
		t.Fatalf("editedBook = %#v, want %#v", got, want)
	}
}
