package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ratranqu/endstone/internal/logger"
)

// ensureDirTracked creates path and returns the directories that did not exist
// before, deepest first, so a failed install can remove them again.
func ensureDirTracked(path string) ([]string, error) {
	var missing []string

	for current := filepath.Clean(path); ; {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return nil, fmt.Errorf("path exists but is not a directory: %s", current)
			}

			break
		}

		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", current, err)
		}

		missing = append(missing, current)

		next := filepath.Dir(current)
		if next == current {
			break
		}

		current = next
	}

	if len(missing) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(path, dirMode); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", path, err)
	}

	return missing, nil
}

// removeEmptyDirs removes dirs in order, stopping quietly at the first that is not empty.
func removeEmptyDirs(dirs []string) {
	for _, dir := range dirs {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

// stagingPrefix is the name prefix of the staging directories created for root.
func stagingPrefix(root string) string {
	return "." + filepath.Base(root) + ".staging-"
}

// sweepStaging removes staging directories left in parent by an install that
// was killed before it could clean up.
func sweepStaging(ctx context.Context, parent, prefix string) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		stale := filepath.Join(parent, entry.Name())

		if err = os.RemoveAll(stale); err != nil {
			logger.WarnKV(ctx, "Unable to remove stale staging directory", "path", stale, "error", err)
			continue
		}

		logger.InfoKV(ctx, "Removed stale staging directory", "path", stale)
	}
}
