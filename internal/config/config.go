package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ratranqu/endstone/internal/logger"
	"github.com/ratranqu/endstone/internal/version"
)

// Config holds the settings shared by the endstone binaries.
type Config struct {
	// ServerFolder is the install folder template; {system} and {version} are substituted.
	ServerFolder string `yaml:"server_folder"`
	// Remote is the URL of the bedrock server data document.
	Remote string `yaml:"remote"`
	// Version is the Bedrock Dedicated Server version to run.
	Version string `yaml:"version"`
	// Timeout bounds the metadata request and the wait for download response headers.
	Timeout time.Duration `yaml:"timeout"`
	// PluginsFolder is created inside the server folder before launch.
	PluginsFolder string `yaml:"plugins_folder"`
	// RuntimeLibrary is an optional shared library preloaded into the server on Linux.
	RuntimeLibrary string `yaml:"runtime_library,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for bootstrap settings.
	DefaultConfigFilename = "endstone.yaml"

	// DefaultServerFolder matches the layout used by the endstone Python launcher.
	DefaultServerFolder = "bedrock_server/{system}/{version}"

	// DefaultRemote is the community-maintained bedrock server data document.
	DefaultRemote = "https://raw.githubusercontent.com/EndstoneMC/bedrock-server-data/main/bedrock_server_data.json"

	// DefaultPluginsFolder is the plugins directory name inside the server folder.
	DefaultPluginsFolder = "plugins"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRemoteScheme is returned when the remote URL is not http(s).
	errRemoteScheme = errors.New("remote must be an http or https URL")
	// errBadLogLevel is returned for unknown log levels.
	errBadLogLevel = errors.New("unknown log level")
	// errAbsolutePlugins is returned when the plugins folder escapes the server folder.
	errAbsolutePlugins = errors.New("plugins folder must be relative to the server folder")
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns defaults when the file does not exist.
// A missing file is only tolerated when required is false.
func LoadOrDefault(path string, required bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !required && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return nil, err
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.ServerFolder = strings.TrimSpace(cfg.ServerFolder)
	if cfg.ServerFolder == "" {
		cfg.ServerFolder = DefaultServerFolder
	}

	cfg.Remote = strings.TrimSpace(cfg.Remote)
	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}

	cfg.Version = strings.TrimPrefix(strings.TrimSpace(cfg.Version), "v")
	if cfg.Version == "" {
		cfg.Version = version.MinecraftVersion
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.PluginsFolder == "" {
		cfg.PluginsFolder = DefaultPluginsFolder
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errBadLogLevel)
	}

	if filepath.IsAbs(cfg.PluginsFolder) {
		return fmt.Errorf("%q: %w", cfg.PluginsFolder, errAbsolutePlugins)
	}

	remote, err := url.ParseRequestURI(cfg.Remote)
	if err != nil {
		return fmt.Errorf("invalid remote URL: %w", err)
	}

	if remote.Scheme != "http" && remote.Scheme != "https" {
		return fmt.Errorf("%q: %w", cfg.Remote, errRemoteScheme)
	}

	return nil
}
