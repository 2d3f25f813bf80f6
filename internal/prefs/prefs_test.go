package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrefs(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Prefs
	}{
		{
			name: "theme and filters",
			body: "theme = \"Kanagawa\"\ncategory = \"Mystery\"\nsort = \"-votes\"\n",
			want: Prefs{Theme: "Kanagawa", Category: "Mystery", Sort: "-votes"},
		},
		{
			name: "empty theme uses default",
			body: "theme = \"\"\n",
			want: Defaults(),
		},
		{
			name: "all category means no filter",
			body: "theme = \"Dayfox\"\ncategory = \"All\"\n",
			want: Prefs{Theme: "Dayfox"},
		},
		{
			name: "whitespace trimmed",
			body: "theme = \" Dayfox \"\ncategory = \" Romance \"\n",
			want: Prefs{Theme: "Dayfox", Category: "Romance"},
		},
		{
			name: "malformed file uses defaults",
			body: "theme = [broken",
			want: Defaults(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writePrefs(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Load = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("Load = %#v, want defaults", got)
	}
}

func TestLoad_EmptyPathUsesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "folio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Kanagawa\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "Kanagawa" {
		t.Fatalf("Theme = %q, want Kanagawa", got.Theme)
	}
}

func TestSave_CreatesDirsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "folio", "prefs.toml")
	in := Prefs{Theme: " Kanagawa ", Category: "Science Fiction", Sort: "-rating"}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Prefs{Theme: "Kanagawa", Category: "Science Fiction", Sort: "-rating"}
	if got != want {
		t.Fatalf("round trip = %#v, want %#v", got, want)
	}
}

func TestSave_OmitsEmptyFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := Save(path, Prefs{Theme: "Nightfox", Category: "all"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "Nightfox") || strings.Contains(got, "category") || strings.Contains(got, "sort") {
		t.Fatalf("file = %q", got)
	}
}
