package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Nuclia contains credentials and endpoint settings for the remote
// Nuclia knowledge box.
type Nuclia struct {
	Zone    string `toml:"zone"`
	KBID    string `toml:"kbid"`
	Token   string `toml:"token"`
	APIHost string `toml:"api_host"`
	// RequestTimeout bounds non-streaming remote calls, in seconds.
	RequestTimeout int `toml:"request_timeout"`
}

// ContentDB describes the host content system's Postgres database. The
// sync daemon only ever reads from it.
type ContentDB struct {
	DSN string `toml:"dsn"`
}

// Indexing contains synchronization policy settings.
type Indexing struct {
	// ContentTypes is the allowlist of content types eligible for indexing.
	ContentTypes []string `toml:"content_types"`
	Workers      int      `toml:"workers"`
	MaxAttempts  int      `toml:"max_attempts"`
	// RetryBackoffSeconds is the base delay before the first retry; each
	// subsequent attempt doubles it.
	RetryBackoffSeconds int `toml:"retry_backoff_seconds"`
	// StaggerSeconds spaces out bulk-scheduled jobs to avoid bursting the
	// remote API. Not a true rate limiter.
	StaggerSeconds int `toml:"stagger_seconds"`
	// PageSize bounds memory during bulk reindex scans.
	PageSize int `toml:"page_size"`
	Language string `toml:"language"`
}

// Proxy contains settings for the browser-widget reverse proxy.
type Proxy struct {
	Enabled bool `toml:"enabled"`
	// StreamTimeout bounds streaming download requests, in seconds.
	StreamTimeout int `toml:"stream_timeout"`
}

// TaxonomyMapping maps one host taxonomy onto a Nuclia labelset.
type TaxonomyMapping struct {
	Labelset string              `toml:"labelset"`
	Terms    map[string][]string `toml:"terms"`
	Fallback FallbackLabels      `toml:"fallback"`
}

// FallbackLabels is applied when an item has no terms assigned under the
// mapped taxonomy.
type FallbackLabels struct {
	Labelset string   `toml:"labelset"`
	Labels   []string `toml:"labels"`
}

// Labels holds the taxonomy-to-labelset mapping used to build
// classification payloads.
type Labels struct {
	Taxonomies map[string]TaxonomyMapping `toml:"taxonomies"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for nucliasync.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Nuclia    Nuclia    `toml:"nuclia"`
	ContentDB ContentDB `toml:"content_db"`
	Indexing  Indexing  `toml:"indexing"`
	Proxy     Proxy     `toml:"proxy"`
	Labels    Labels    `toml:"labels"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/nucliasync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nucliasync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IndexableType reports whether a content type is on the configured allowlist.
func (c *Config) IndexableType(contentType string) bool {
	for _, t := range c.Indexing.ContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
