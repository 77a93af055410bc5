// Package sink persists rendered transcripts to the local filesystem.
package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

// Local writes one file per transcript under Dir.
type Local struct {
	Dir string
}

func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// Write stores t as <Dir>/<transcript.FileName> and returns the path. The
// file is written under a temporary name and renamed into place; an existing
// file with the same name is replaced.
func (l *Local) Write(t *transcript.Transcript) (string, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	path := filepath.Join(l.Dir, transcript.FileName(t.Conversation))

	tmp, err := os.CreateTemp(l.Dir, ".transcript-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(t.Bytes()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod transcript: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename transcript: %w", err)
	}
	return path, nil
}
