package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNotHeld is returned by Release when the caller does not own the lock.
var ErrNotHeld = errors.New("lock is not held by this process")

// PIDFile is an exclusive advisory lock tied to a well-known host-local
// path, holding the owning process ID. A recorded holder that no longer
// exists is treated as stale and reclaimed, so a crashed cycle never wedges
// the guardian until manual cleanup.
type PIDFile struct {
	path string
}

func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

func (l *PIDFile) Path() string {
	return l.path
}

// TryAcquire attempts to take the lock without blocking. It returns false
// when a live holder exists; a stale holder is reclaimed automatically.
func (l *PIDFile) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	// Two attempts: the second one runs after a stale holder is removed.
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := file.WriteString(strconv.Itoa(os.Getpid()))
			cerr := file.Close()
			if werr != nil || cerr != nil {
				os.Remove(l.path)

				return false, errors.Join(werr, cerr)
			}

			return true, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		holder, herr := l.holder()
		if herr == nil && holderAlive(holder) {
			return false, nil
		}

		// Holder is gone or the file is unreadable garbage: stale.
		if rerr := os.Remove(l.path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to reclaim stale lock: %w", rerr)
		}
	}

	// Another contender won the race for the reclaimed lock.
	return false, nil
}

// Release removes the lock file. It is safe to call on every exit path; it
// fails only when the lock belongs to someone else.
func (l *PIDFile) Release() error {
	holder, err := l.holder()
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotHeld
	}
	if err == nil && holder != os.Getpid() {
		return ErrNotHeld
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	return nil
}

func (l *PIDFile) holder() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed lock file %q", l.path)
	}

	return pid, nil
}

func holderAlive(pid int) bool {
	if pid == os.Getpid() {
		return true
	}

	alive, err := process.PidExists(int32(pid))

	return err == nil && alive
}
