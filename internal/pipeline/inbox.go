package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Inbox stores uploaded documents in the input directory for the next batch.
type Inbox struct {
	dir string
}

// NewInbox creates an Inbox writing into dir.
func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// Put writes data as wt_data_<8 hex>.json and returns the file name. The file
// appears under its final name only once fully written, so a concurrent
// Discover never sees a partial upload.
func (in *Inbox) Put(data []byte) (string, error) {
	if err := os.MkdirAll(in.dir, 0o755); err != nil {
		return "", fmt.Errorf("create inbox dir: %w", err)
	}

	tmp, err := os.CreateTemp(in.dir, ".upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	dst, err := linkUnique(tmp.Name(), 5, func(int) string {
		return filepath.Join(in.dir, "wt_data_"+uuid.NewString()[:8]+".json")
	})
	if err != nil {
		return "", fmt.Errorf("publish upload: %w", err)
	}
	return filepath.Base(dst), nil
}
