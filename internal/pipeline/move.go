package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
)

// moveAttempts bounds how many destination names Move tries.
const moveAttempts = 8

var errNoFreeName = errors.New("no free file name")

// Mover relocates and deletes batch files. A file that is already gone is
// not an error, and an existing destination is never replaced.
type Mover struct {
	clock clockwork.Clock
}

// NewMover creates a Mover that uses clock for collision suffixes.
func NewMover(clock clockwork.Clock) *Mover {
	return &Mover{clock: clock}
}

// Move relocates src into dir under its own name and returns the destination.
// If the name is taken, a _<unixnanos> suffix is added before the extension.
// A missing src returns "" and a nil error.
func (m *Mover) Move(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, filepath.Base(src))
	var nanos int64
	name := func(attempt int) string {
		if attempt == 0 {
			return target
		}
		if attempt == 1 {
			nanos = m.clock.Now().UnixNano()
		}
		return withSuffix(target, nanos+int64(attempt-1))
	}

	dst, err := linkUnique(src, moveAttempts, name)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case errors.Is(err, syscall.EXDEV):
		dst, err = copyAcross(src, dir, name)
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("move %s: %w", src, err)
	}

	if err := m.Remove(src); err != nil {
		return dst, fmt.Errorf("remove %s after move: %w", src, err)
	}
	return dst, nil
}

// Remove deletes path. A missing path is not an error.
func (m *Mover) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// linkUnique hard-links src under the first name(attempt) that does not
// exist yet and returns it. os.Link fails on an existing destination, so no
// file is ever overwritten.
func linkUnique(src string, attempts int, name func(attempt int) string) (string, error) {
	for i := range attempts {
		dst := name(i)
		err := os.Link(src, dst)
		if err == nil {
			return dst, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", errNoFreeName
}

func withSuffix(path string, n int64) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + strconv.FormatInt(n, 10) + ext
}

// copyAcross copies src into dir on another filesystem. The copy is written
// under a temporary name and then linked into place, so the destination is
// never observed half written.
func copyAcross(src, dir string, name func(attempt int) string) (dst string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, ".move-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	dst, err = linkUnique(tmp.Name(), moveAttempts, name)
	if err != nil {
		return "", fmt.Errorf("place %s: %w", src, err)
	}
	return dst, nil
}
