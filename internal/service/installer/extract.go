package installer

import (
	"archive/tar"
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/ratranqu/endstone/internal/logger"
)

// maxEntryBytes is the upper bound on a single extracted file (2 GiB).
// Prevents decompression bombs when unpacking server archives.
const maxEntryBytes = 2 << 30

var (
	errUnsafePath    = errors.New("unsafe archive path")
	errEntryTooLarge = errors.New("archive entry exceeds size limit")
)

// extractZip unpacks a zip archive into destDir.
func extractZip(ctx context.Context, zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return integrity(fmt.Errorf("open archive: %w", err))
	}

	defer func() {
		_ = r.Close()
	}()

	for _, file := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		destPath, skip, err := safeDestination(destDir, file.Name)
		if err != nil {
			return err
		}

		if skip {
			continue
		}

		info := file.FileInfo()

		switch {
		case info.IsDir():
			if err := os.MkdirAll(destPath, dirMode); err != nil {
				return fmt.Errorf("create directory %s: %w", destPath, err)
			}
		case info.Mode()&os.ModeSymlink != 0:
			logger.DebugKV(ctx, "Skipping symlink in archive", "name", file.Name)
		default:
			rc, err := file.Open()
			if err != nil {
				return integrity(fmt.Errorf("open archive file %s: %w", file.Name, err))
			}

			err = writeEntry(destPath, rc, info.Mode().Perm())
			_ = rc.Close()

			if err != nil {
				return fmt.Errorf("extract %s: %w", file.Name, err)
			}
		}
	}

	return nil
}

// extractTarGz unpacks a gzip-compressed tarball into destDir.
func extractTarGz(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return integrity(fmt.Errorf("open gzip stream: %w", err))
	}

	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return integrity(fmt.Errorf("read tar header: %w", err))
		}

		destPath, skip, err := safeDestination(destDir, header.Name)
		if err != nil {
			return err
		}

		if skip {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, dirMode); err != nil {
				return fmt.Errorf("create directory %s: %w", destPath, err)
			}
		case tar.TypeReg:
			if err := writeEntry(destPath, tr, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
		default:
			logger.DebugKV(ctx, "Skipping unsupported tar entry", "name", header.Name, "type", string(header.Typeflag))
		}
	}
}

// placeRaw installs a bare executable at target using go-update, which writes a
// sibling file and renames it over target. The checksum, when known, is checked
// again by go-update before anything is written.
func placeRaw(artifact, target, checksum string) error {
	f, err := os.Open(artifact)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	// go-update swaps an existing file, so give it an empty placeholder inside the staging tree.
	placeholder, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return fmt.Errorf("create placeholder: %w", err)
	}

	if err = placeholder.Close(); err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
	}

	if checksum != "" {
		sum, decodeErr := hex.DecodeString(checksum)
		if decodeErr != nil {
			return integrity(fmt.Errorf("decode checksum: %w", decodeErr))
		}

		options.Checksum = sum
		options.Hash = crypto.SHA256
	}

	if err = goupdate.Apply(f, options); err != nil {
		return fmt.Errorf("apply raw executable: %w", err)
	}

	return nil
}

// safeDestination resolves an archive entry name inside destDir.
// It reports skip for entries that name the root itself.
func safeDestination(destDir, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", true, nil
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." {
		return "", true, nil
	}

	if clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) ||
		filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", false, integrity(fmt.Errorf("%s: %w", name, errUnsafePath))
	}

	destPath := filepath.Join(destDir, clean)
	if !isPathWithinDir(destPath, destDir) {
		return "", false, integrity(fmt.Errorf("%s: %w", name, errUnsafePath))
	}

	return destPath, false, nil
}

// writeEntry copies at most maxEntryBytes from r into path.
func writeEntry(path string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return err
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	source := &sourceReader{r: r}

	written, copyErr := io.CopyN(out, source, maxEntryBytes+1)
	closeErr := out.Close()

	switch {
	case source.err != nil:
		return integrity(source.err)
	case copyErr != nil && !errors.Is(copyErr, io.EOF):
		return copyErr
	case written > maxEntryBytes:
		return integrity(errEntryTooLarge)
	default:
		return closeErr
	}
}

// isPathWithinDir reports whether path is dir or lies below it.
func isPathWithinDir(path, dir string) bool {
	pathClean := filepath.Clean(path)
	dirClean := filepath.Clean(dir)

	if pathClean == dirClean {
		return true
	}

	return strings.HasPrefix(pathClean, dirClean+string(os.PathSeparator))
}
