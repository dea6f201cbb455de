package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// SystemPlaceholder is replaced with Platform.String() in folder templates.
	SystemPlaceholder = "{system}"
	// VersionPlaceholder is replaced with the server version in folder templates.
	VersionPlaceholder = "{version}"
)

var (
	errEmptyTemplate       = errors.New("server folder template is empty")
	errEmptyVersion        = errors.New("server version is empty")
	errEmptyBinaryName     = errors.New("binary name is empty")
	errUnknownPlaceholder  = errors.New("unknown placeholder in server folder template")
	errUnsupportedPlatform = errors.New("layout requested for unsupported platform")

	placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)
)

// Layout is the on-disk location of one server version.
type Layout struct {
	// Root is the folder the server archive is extracted into.
	Root string
	// Executable is the canonical path of the server binary inside Root.
	Executable string
}

// BinaryName returns the file name of the executable.
func (l Layout) BinaryName() string {
	return filepath.Base(l.Executable)
}

// ResolveLayout substitutes {system} and {version} in template and returns the layout.
// The result depends only on its arguments.
func ResolveLayout(template string, platform Platform, version, binaryName string) (Layout, error) {
	template = strings.TrimSpace(template)
	version = strings.TrimSpace(version)

	switch {
	case template == "":
		return Layout{}, errEmptyTemplate
	case version == "":
		return Layout{}, errEmptyVersion
	case binaryName == "":
		return Layout{}, errEmptyBinaryName
	case !platform.Supported():
		return Layout{}, fmt.Errorf("%s: %w", platform, errUnsupportedPlatform)
	}

	replacer := strings.NewReplacer(
		SystemPlaceholder, platform.String(),
		VersionPlaceholder, version,
	)

	folder := replacer.Replace(template)
	if leftover := placeholderPattern.FindString(folder); leftover != "" {
		return Layout{}, fmt.Errorf("%q in %q: %w", leftover, template, errUnknownPlaceholder)
	}

	root := filepath.Clean(filepath.FromSlash(folder))

	return Layout{
		Root:       root,
		Executable: filepath.Join(root, binaryName),
	}, nil
}
