// Package runlog creates the run-scoped log artifact. Every warning the
// migration emits (unresolved references, duplicate identifiers, skipped
// files) lands both on stderr and in a timestamped log file.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const stampLayout = "20060102_150405"

// Open creates logseq-to-obsidian-<stamp>.log in dir and returns a logger
// writing to it and to stderr. The caller closes the returned closer when the
// run ends.
func Open(dir string) (*slog.Logger, io.Closer, error) {
	name := fmt.Sprintf("logseq-to-obsidian-%s.log", time.Now().Format(stampLayout))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), nil)
	return slog.New(handler), f, nil
}
