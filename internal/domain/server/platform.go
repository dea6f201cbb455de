package server

import (
	"runtime"
	"strings"
)

// Platform identifies the operating system a server build targets.
type Platform int

const (
	// Unsupported is any platform Bedrock Dedicated Server is not shipped for.
	Unsupported Platform = iota
	// Windows is the Windows build of the server.
	Windows
	// Linux is the Linux build of the server.
	Linux
)

// String returns the display name used in folder templates ("Windows", "Linux").
func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case Linux:
		return "Linux"
	default:
		return "Unsupported"
	}
}

// Key returns the lower-case key used by the remote descriptor document.
func (p Platform) Key() string {
	return strings.ToLower(p.String())
}

// Supported reports whether p is one of the known server platforms.
func (p Platform) Supported() bool {
	return p == Windows || p == Linux
}

// ParsePlatform maps a platform identifier to a Platform.
// Both display names and GOOS spellings are accepted, case-insensitively.
// Anything else yields Unsupported and false.
func ParsePlatform(name string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows":
		return Windows, true
	case "linux":
		return Linux, true
	default:
		return Unsupported, false
	}
}

// CurrentPlatformName returns the display name of the running operating system,
// e.g. "Linux" or "Darwin". It never fails; unknown systems keep their GOOS spelling.
func CurrentPlatformName() string {
	goos := runtime.GOOS
	if p, ok := ParsePlatform(goos); ok {
		return p.String()
	}

	if goos == "" {
		return goos
	}

	return strings.ToUpper(goos[:1]) + goos[1:]
}

// DetectPlatform returns the Platform of the running operating system.
func DetectPlatform() Platform {
	p, _ := ParsePlatform(runtime.GOOS)

	return p
}
