package packager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
	"github.com/ratranqu/endstone/internal/repository/descriptor"
	"github.com/ratranqu/endstone/internal/service/resolver"
)

// DefaultDocumentFilename is the document name used by the public server data repository.
const DefaultDocumentFilename = "bedrock_server_data.json"

var (
	errUnknownPlatform = errors.New("unknown platform")
	errEmptyVersion    = errors.New("version is empty")
	errEmptyURL        = errors.New("download url is empty")
	errArtifactIsDir   = errors.New("artifact is a directory")
	errUnknownFormat   = errors.New("unknown archive format")
)

// Options contains inputs for the packager entry point.
type Options struct {
	// DocumentPath is the document to update; it is created when missing.
	DocumentPath string
	// ArtifactPath is the local copy of the server build.
	ArtifactPath string
	// URL is where the build will be downloaded from.
	URL string
	// Version is the server version of the build.
	Version string
	// Platform is Linux or Windows.
	Platform string
	// Format overrides the archive format inferred from URL.
	Format string
}

// packager updates one document entry.
// It is unexported; callers use Run, which validates the options first.
type packager struct {
	// repo loads and saves the document.
	repo descriptor.Repository
	// platform is the parsed target platform.
	platform domain.Platform
	// opts are the validated options.
	opts *Options
}

// Run hashes the artifact and upserts its entry into the document.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "endstone-packager")

	pkg, err := newPackager(opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager validates opts and creates the packager.
func newPackager(opts *Options) (*packager, error) {
	if opts == nil {
		opts = new(Options)
	}

	platform, ok := domain.ParsePlatform(opts.Platform)
	if !ok {
		return nil, fmt.Errorf("%q: %w", opts.Platform, errUnknownPlatform)
	}

	cleaned := *opts
	cleaned.Version = strings.TrimPrefix(strings.TrimSpace(opts.Version), "v")
	cleaned.URL = strings.TrimSpace(opts.URL)

	switch {
	case cleaned.Version == "":
		return nil, errEmptyVersion
	case cleaned.URL == "":
		return nil, errEmptyURL
	}

	if cleaned.Format != "" {
		format, known := domain.ParseArchiveFormat(cleaned.Format)
		if !known {
			return nil, fmt.Errorf("%q: %w", cleaned.Format, errUnknownFormat)
		}

		cleaned.Format = string(format)
	}

	if cleaned.DocumentPath == "" {
		cleaned.DocumentPath = DefaultDocumentFilename
	}

	return &packager{
		repo:     descriptor.NewFileRepository(cleaned.DocumentPath),
		platform: platform,
		opts:     &cleaned,
	}, nil
}

// Run loads the document, records the artifact and saves the document.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Hashing artifact", "path", p.opts.ArtifactPath)

	checksum, size, err := fileChecksum(p.opts.ArtifactPath)
	if err != nil {
		return err
	}

	doc, err := p.repo.Load(ctx)

	switch {
	case errors.Is(err, descriptor.ErrNotFound):
		logger.InfoKV(ctx, "Creating new document", "path", p.opts.DocumentPath)

		doc = &resolver.Document{Binary: make(map[string]map[string]*resolver.Artifact)}
	case err != nil:
		return err
	}

	platforms, ok := doc.Binary[p.opts.Version]
	if !ok {
		platforms = make(map[string]*resolver.Artifact)
		doc.Binary[p.opts.Version] = platforms
	}

	previous := platforms[p.platform.Key()]
	platforms[p.platform.Key()] = &resolver.Artifact{
		URL:    p.opts.URL,
		SHA256: checksum,
		Format: p.opts.Format,
	}

	// The entry must be something the launcher accepts.
	if _, err = doc.Lookup(p.platform, p.opts.Version); err != nil {
		return err
	}

	if previous != nil {
		logger.InfoKV(ctx, "Replacing existing entry", "url", previous.URL, "sha256", previous.SHA256)
	}

	if err = p.repo.Save(ctx, doc); err != nil {
		return err
	}

	p.printNextSteps(ctx, checksum, size)

	return nil
}

// printNextSteps logs human-readable guidance for publishing the artifact and document.
func (p *packager) printNextSteps(ctx context.Context, checksum string, size uint64) {
	var builder strings.Builder

	builder.WriteString("Upload ")
	builder.WriteString(filepath.Base(p.opts.ArtifactPath))
	builder.WriteString(" (")
	builder.WriteString(humanize.Bytes(size))
	builder.WriteString(", sha256 ")
	builder.WriteString(checksum)
	builder.WriteString(") so that it is served at\n")
	builder.WriteString(p.opts.URL)
	builder.WriteString("\nthen publish ")
	builder.WriteString(p.opts.DocumentPath)
	builder.WriteString(" and point the launcher at it with --remote.")

	logger.Info(ctx, builder.String())
}

// fileChecksum returns the hex SHA-256 and size of the file at path.
func fileChecksum(path string) (string, uint64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", 0, fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat artifact: %w", err)
	}

	if info.IsDir() {
		return "", 0, fmt.Errorf("%s: %w", path, errArtifactIsDir)
	}

	hasher := sha256.New()

	written, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, fmt.Errorf("calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), uint64(written), nil //nolint:gosec // io.Copy never returns a negative count.
}
