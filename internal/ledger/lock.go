package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/elexam/internal/constants"
	elerrors "github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
)

var findProcessFunc = ps.FindProcess

// Lock is a lockfile next to the ledger holding "<pid>|<executable>" of
// the process writing it. A lock whose process is gone is stale and taken
// over.
type Lock struct {
	path string
	held bool
}

func NewLock(ledgerPath string) *Lock {
	return &Lock{path: ledgerPath + constants.LedgerLockSuffix}
}

func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock or fails with a LOCKED error naming the owner.
func (l *Lock) Acquire() error {
	if l.held {
		return nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d|%s", os.Getpid(), filepath.Base(os.Args[0]))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(l.path)
				return fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			l.held = true
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("failed to create lockfile: %w", err)
		}

		pid, alive := l.owner()
		if alive {
			return elerrors.ErrLocked.WithDetails(pid).WithCause(fmt.Errorf("ledger is in use by process %d (%s)", pid, l.path))
		}
		logger.Warn("Removing stale ledger lock", "path", l.path, "pid", pid)
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return elerrors.ErrLocked.WithCause(fmt.Errorf("could not acquire %s", l.path))
}

// owner reads the lockfile and reports whether its process still runs.
func (l *Lock) owner() (int, bool) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}

	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	if len(parts) == 2 && process.Executable() != "" && !strings.HasPrefix(parts[1], process.Executable()) {
		// the PID was reused by another program
		return pid, false
	}
	return pid, true
}

// Release removes the lockfile if this Lock holds it.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
