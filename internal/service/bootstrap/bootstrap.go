package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ratranqu/endstone/internal/config"
	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/service/installer"
	"github.com/ratranqu/endstone/internal/service/resolver"
)

const (
	// LinuxBinary is the server executable name on Linux.
	LinuxBinary = "bedrock_server"
	// WindowsBinary is the server executable name on Windows.
	WindowsBinary = "bedrock_server.exe"
)

// Resolver finds the download for a (platform, version) pair.
type Resolver interface {
	Resolve(ctx context.Context, remoteURL string, platform domain.Platform, version string) (*domain.RemoteDescriptor, error)
}

// Installer places a resolved artifact at a layout.
type Installer interface {
	Install(ctx context.Context, descriptor *domain.RemoteDescriptor, layout domain.Layout) error
}

// Bootstrap manages the server binary of one platform.
type Bootstrap interface {
	// Platform is the platform this variant serves.
	Platform() domain.Platform
	// Version is the server version this bootstrap manages.
	Version() string
	// Layout is the resolved install location.
	Layout() domain.Layout
	// ExecutablePath is the canonical server executable path.
	ExecutablePath() string
	// Install resolves and installs the configured version.
	Install(ctx context.Context) error
	// Run starts the server, waits for it and returns its exit code.
	// A server that could not be started yields a *domain.SpawnError.
	Run(ctx context.Context) (int, error)
}

// Settings configure a Bootstrap variant.
type Settings struct {
	// ServerFolder is the folder template with {system} and {version} placeholders.
	ServerFolder string
	// Remote is the URL of the bedrock server data document.
	Remote string
	// Version is the server version to run.
	Version string
	// PluginsFolder is created inside the install root before launch.
	PluginsFolder string
	// RuntimeLibrary is preloaded into the server process on Linux.
	RuntimeLibrary string
	// Timeout bounds network requests.
	Timeout time.Duration
	// Args are passed to the server verbatim.
	Args []string

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Resolver and Installer default to the HTTP implementations.
	Resolver  Resolver
	Installer Installer
}

// SettingsFromConfig copies the launcher settings out of cfg.
func SettingsFromConfig(cfg *config.Config, args []string) Settings {
	return Settings{
		ServerFolder:   cfg.ServerFolder,
		Remote:         cfg.Remote,
		Version:        cfg.Version,
		PluginsFolder:  cfg.PluginsFolder,
		RuntimeLibrary: cfg.RuntimeLibrary,
		Timeout:        cfg.Timeout,
		Args:           args,
	}
}

// Select returns the Bootstrap for platformName.
// Unknown names fail with *domain.UnsupportedPlatformError without touching disk or network.
func Select(platformName string, settings Settings) (Bootstrap, error) {
	platform, ok := domain.ParsePlatform(platformName)
	if !ok {
		return nil, &domain.UnsupportedPlatformError{Platform: strings.TrimSpace(platformName)}
	}

	var (
		bootstrap Bootstrap
		err       error
	)

	switch platform {
	case domain.Linux:
		bootstrap, err = NewLinux(settings)
	case domain.Windows:
		bootstrap, err = NewWindows(settings)
	default:
		return nil, &domain.UnsupportedPlatformError{Platform: platformName}
	}

	if err != nil {
		return nil, err
	}

	return bootstrap, nil
}

// base holds what the variants share.
type base struct {
	platform  domain.Platform
	layout    domain.Layout
	settings  Settings
	resolver  Resolver
	installer Installer
}

func newBase(platform domain.Platform, binaryName string, settings Settings) (*base, error) {
	layout, err := domain.ResolveLayout(settings.ServerFolder, platform, settings.Version, binaryName)
	if err != nil {
		return nil, fmt.Errorf("resolve server layout: %w", err)
	}

	if settings.PluginsFolder == "" {
		settings.PluginsFolder = config.DefaultPluginsFolder
	}

	if settings.Stdin == nil {
		settings.Stdin = os.Stdin
	}

	if settings.Stdout == nil {
		settings.Stdout = os.Stdout
	}

	if settings.Stderr == nil {
		settings.Stderr = os.Stderr
	}

	b := &base{
		platform:  platform,
		layout:    layout,
		settings:  settings,
		resolver:  settings.Resolver,
		installer: settings.Installer,
	}

	if b.resolver == nil {
		b.resolver = resolver.New(resolver.WithTimeout(settings.Timeout))
	}

	if b.installer == nil {
		b.installer = installer.New(settings.Timeout)
	}

	return b, nil
}

// absolute anchors a relative layout at the current directory. The server is
// started inside Root, where relative paths would no longer resolve.
func (b *base) absolute() error {
	root, err := filepath.Abs(b.layout.Root)
	if err != nil {
		return fmt.Errorf("resolve server folder: %w", err)
	}

	b.layout.Root = root
	b.layout.Executable = filepath.Join(root, b.layout.BinaryName())

	return nil
}

func (b *base) Platform() domain.Platform { return b.platform }

func (b *base) Version() string { return b.settings.Version }

func (b *base) Layout() domain.Layout { return b.layout }

func (b *base) ExecutablePath() string { return b.layout.Executable }

// Install resolves the configured version and installs it. Resolution happens
// before anything is written, so a resolution failure leaves the disk untouched.
func (b *base) Install(ctx context.Context) error {
	descriptor, err := b.resolver.Resolve(ctx, b.settings.Remote, b.platform, b.settings.Version)
	if err != nil {
		return err
	}

	return b.installer.Install(ctx, descriptor, b.layout)
}
