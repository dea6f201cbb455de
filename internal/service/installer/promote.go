package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
)

// promote moves the staged tree to layout.Root.
//
// A missing root is created by renaming the whole tree in one step. An existing
// root is merged entry by entry with the executable moved last, so the canonical
// path only ever points at a complete install.
func (i *Installer) promote(ctx context.Context, tree string, layout domain.Layout) error {
	info, err := os.Lstat(layout.Root)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err = os.Rename(tree, layout.Root); err != nil {
			return fmt.Errorf("promote %s: %w", layout.Root, err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("stat install root: %w", err)
	case !info.IsDir():
		return fmt.Errorf("%s: %w", layout.Root, errRootNotDir)
	}

	binaryName := layout.BinaryName()

	entries, err := os.ReadDir(tree)
	if err != nil {
		return fmt.Errorf("read staged tree: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == binaryName {
			continue
		}

		destination := filepath.Join(layout.Root, name)

		if _, keep := i.preserved[name]; keep {
			if _, statErr := os.Lstat(destination); statErr == nil {
				logger.InfoKV(ctx, "Keeping existing server file", "path", destination)
				continue
			}
		}

		if err = mergeEntry(filepath.Join(tree, name), destination); err != nil {
			return err
		}
	}

	if err = os.Rename(filepath.Join(tree, binaryName), layout.Executable); err != nil {
		return fmt.Errorf("promote executable: %w", err)
	}

	return nil
}

// mergeEntry moves src to dst, descending into directories that exist on both sides.
func mergeEntry(src, dst string) error {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return err
	}

	dstInfo, err := os.Lstat(dst)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	case srcInfo.IsDir() && dstInfo.IsDir():
		entries, readErr := os.ReadDir(src)
		if readErr != nil {
			return readErr
		}

		for _, entry := range entries {
			if err = mergeEntry(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}

		return nil
	case srcInfo.IsDir() || dstInfo.IsDir():
		if err = os.RemoveAll(dst); err != nil {
			return fmt.Errorf("replace %s: %w", dst, err)
		}
	}

	if err = os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", dst, err)
	}

	return nil
}
