package server

import (
	"net/url"
	"path"
	"strings"
)

// ArchiveFormat describes how a downloaded artifact is unpacked.
type ArchiveFormat string

const (
	// FormatZip is a zip archive (the format Mojang ships).
	FormatZip ArchiveFormat = "zip"
	// FormatTarGz is a gzip-compressed tarball.
	FormatTarGz ArchiveFormat = "tar.gz"
	// FormatRaw is the bare executable.
	FormatRaw ArchiveFormat = "raw"
)

// ParseArchiveFormat validates an explicit format name.
func ParseArchiveFormat(name string) (ArchiveFormat, bool) {
	switch ArchiveFormat(strings.ToLower(strings.TrimSpace(name))) {
	case FormatZip:
		return FormatZip, true
	case FormatTarGz, "tgz":
		return FormatTarGz, true
	case FormatRaw, "binary":
		return FormatRaw, true
	default:
		return "", false
	}
}

// InferArchiveFormat guesses the format from the download URL's path suffix.
// Unknown suffixes are treated as a raw executable.
func InferArchiveFormat(downloadURL string) ArchiveFormat {
	p := downloadURL
	if u, err := url.Parse(downloadURL); err == nil {
		p = u.Path
	}

	name := strings.ToLower(path.Base(p))

	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	default:
		return FormatRaw
	}
}

// RemoteDescriptor is the resolved download location of one (platform, version) pair.
type RemoteDescriptor struct {
	// Platform the artifact is built for.
	Platform Platform
	// Version of the server release.
	Version string
	// DownloadURL points at the artifact.
	DownloadURL string
	// Checksum is the lower-case hex SHA-256 of the artifact; empty when the
	// remote document does not publish one.
	Checksum string
	// Format tells the installer how to unpack the artifact.
	Format ArchiveFormat
}

// HasChecksum reports whether the artifact must be verified after download.
func (d *RemoteDescriptor) HasChecksum() bool {
	return d != nil && d.Checksum != ""
}
