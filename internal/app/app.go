package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/assistant"
	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/ui"
)

// Options configure the folio application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses ~/.config/folio/prefs.toml
	PollEvery  time.Duration // zero uses the config file's poll_seconds
	ThemeName  string        // empty uses the saved preference
}

// Env is the wired client side of folio: config, REST client, session and
// assistant client. The CLI subcommands and the TUI share it.
type Env struct {
	Config    config.Config
	Client    *api.Client
	Session   *session.Session
	Assistant *assistant.Client
}

// Open loads configuration and builds the client stack. The session has read
// any stored token but is not yet validated; call Session.Bootstrap for that.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	client, err := api.NewClient(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	store, err := session.NewStore(cfg.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	sess := session.New(client, store)
	client.SetCredentials(sess)

	return &Env{
		Config:    cfg,
		Client:    client,
		Session:   sess,
		Assistant: assistant.NewClient(cfg.Assistant.URL),
	}, nil
}

// LogToFile sends the standard logger to folio's log file, which the TUI's
// diagnostics overlay tails. Close the returned file on exit.
func LogToFile(cfg config.Config) (io.Closer, error) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "folio")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Run boots the folio TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}

	logFile, err := LogToFile(env.Config)
	if err != nil {
		return err
	}
	defer logFile.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	log.Printf("folio starting: api=%s poll=%s", env.Client.BaseURL(), env.Config.PollInterval)

	uiOpts := ui.Options{
		Context:   ctx,
		Backend:   env.Client,
		Auth:      env.Session,
		Assistant: env.Assistant,
		Config:    &env.Config,
		ThemeName: opts.ThemeName,
		PrefsPath: opts.PrefsPath,
		Prefs:     userPrefs,
	}
	err = ui.Run(uiOpts)
	log.Printf("folio exiting")
	return err
}
