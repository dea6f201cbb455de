// Package version exposes build metadata for the project.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// MinecraftVersion is the Bedrock Dedicated Server release the launcher installs
// when no other version is configured.
package version
