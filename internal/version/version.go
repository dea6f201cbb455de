package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.5.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
	// MinecraftVersion is the Bedrock Dedicated Server version this build targets.
	// It can be overridden via ldflags or per run with the settings file.
	MinecraftVersion = "1.21.44"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and target server version.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s, minecraft: %s", Version, Commit, BuildTime, MinecraftVersion)
}
