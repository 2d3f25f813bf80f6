package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds folio's client and assistant-proxy settings.
type Config struct {
	APIURL       string
	PollInterval time.Duration
	Debounce     time.Duration
	LogDir       string
	SessionPath  string
	Assistant    Assistant
}

// Assistant configures both sides of the recommendation proxy.
type Assistant struct {
	URL       string // where the TUI reaches the proxy; empty disables it
	Listen    string // proxy bind address
	Upstream  string
	Model     string
	APIKeyEnv string // name of the env var holding the model key
}

const (
	defaultConfigPath   = "~/.config/folio/config.toml"
	defaultAPIURL       = "http://localhost:5000/api"
	defaultPollSeconds  = 3
	defaultDebounceMS   = 500
	defaultLogDir       = "~/.local/state/folio"
	defaultSessionPath  = "~/.config/folio/session.toml"
	defaultAssistantURL = "http://127.0.0.1:7610"
	defaultListen       = "127.0.0.1:7610"
	defaultUpstream     = "https://generativelanguage.googleapis.com"
	defaultModel        = "gemini-1.5-flash"
	defaultAPIKeyEnv    = "FOLIO_AI_API_KEY"
)

// Environment variables that override the file.
const (
	EnvAPIURL       = "FOLIO_API_URL"
	EnvAssistantURL = "FOLIO_ASSISTANT_URL"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:       defaultAPIURL,
		PollInterval: defaultPollSeconds * time.Second,
		Debounce:     defaultDebounceMS * time.Millisecond,
		LogDir:       mustExpand(defaultLogDir),
		SessionPath:  mustExpand(defaultSessionPath),
		Assistant: Assistant{
			URL:       defaultAssistantURL,
			Listen:    defaultListen,
			Upstream:  defaultUpstream,
			Model:     defaultModel,
			APIKeyEnv: defaultAPIKeyEnv,
		},
	}
}

type rawConfig struct {
	APIURL      string        `toml:"api_url"`
	PollSeconds int           `toml:"poll_seconds"`
	DebounceMS  int           `toml:"debounce_ms"`
	LogDir      string        `toml:"log_dir"`
	SessionPath string        `toml:"session_path"`
	Assistant   *rawAssistant `toml:"assistant"`
}

type rawAssistant struct {
	URL       *string `toml:"url"`
	Listen    string  `toml:"listen"`
	Upstream  string  `toml:"upstream"`
	Model     string  `toml:"model"`
	APIKeyEnv string  `toml:"api_key_env"`
}

// Load reads the config file at path (the default location when empty),
// falling back to defaults when it is missing, then applies environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PollSeconds < 0 || raw.DebounceMS < 0 {
		return Config{}, fmt.Errorf("parse config: intervals must not be negative")
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.DebounceMS > 0 {
		cfg.Debounce = time.Duration(raw.DebounceMS) * time.Millisecond
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if a := raw.Assistant; a != nil {
		// An explicit empty url disables the proxy.
		if a.URL != nil {
			cfg.Assistant.URL = strings.TrimSpace(*a.URL)
		}
		if v := strings.TrimSpace(a.Listen); v != "" {
			cfg.Assistant.Listen = v
		}
		if v := strings.TrimSpace(a.Upstream); v != "" {
			cfg.Assistant.Upstream = v
		}
		if v := strings.TrimSpace(a.Model); v != "" {
			cfg.Assistant.Model = v
		}
		if v := strings.TrimSpace(a.APIKeyEnv); v != "" {
			cfg.Assistant.APIKeyEnv = v
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LogPath returns the path of folio's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/folio.log")
	}
	return filepath.Join(c.LogDir, "folio.log")
}

// AssistantKey reads the model API key from the configured env var. Only the
// proxy calls this.
func (c Config) AssistantKey() string {
	name := strings.TrimSpace(c.Assistant.APIKeyEnv)
	if name == "" {
		name = defaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(name))
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v, ok := os.LookupEnv(EnvAssistantURL); ok {
		cfg.Assistant.URL = strings.TrimSpace(v)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
