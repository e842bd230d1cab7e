package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/elexam/internal/errors"
)

type mockProcess struct {
	pid        int
	executable string
}

func (p *mockProcess) Pid() int           { return p.pid }
func (p *mockProcess) PPid() int          { return 0 }
func (p *mockProcess) Executable() string { return p.executable }

func TestLockAcquireRelease(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "ledger.xlsx")
	lock := NewLock(ledgerPath)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lockfile missing: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Errorf("re-acquiring a held lock should be a no-op, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("lockfile still present after release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() should be a no-op, got %v", err)
	}
}

func TestLockHeldByLiveProcess(t *testing.T) {
	oldFindProcessFunc := findProcessFunc
	defer func() { findProcessFunc = oldFindProcessFunc }()
	findProcessFunc = func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: "elexam"}, nil
	}

	ledgerPath := filepath.Join(t.TempDir(), "ledger.xlsx")
	lockPath := NewLock(ledgerPath).Path()
	if err := os.WriteFile(lockPath, []byte("4242|elexam"), 0600); err != nil {
		t.Fatal(err)
	}

	err := NewLock(ledgerPath).Acquire()
	if !errors.Is(err, errors.ErrLocked) {
		t.Fatalf("Acquire() error = %v, want ErrLocked", err)
	}
	content, _ := os.ReadFile(lockPath)
	if string(content) != "4242|elexam" {
		t.Errorf("lockfile was modified: %q", content)
	}
}

func TestLockStale(t *testing.T) {
	oldFindProcessFunc := findProcessFunc
	defer func() { findProcessFunc = oldFindProcessFunc }()

	tests := []struct {
		name    string
		content string
		find    func(int) (ps.Process, error)
	}{
		{
			name:    "process gone",
			content: "4242|elexam",
			find:    func(int) (ps.Process, error) { return nil, nil },
		},
		{
			name:    "pid reused",
			content: "4242|elexam",
			find: func(pid int) (ps.Process, error) {
				return &mockProcess{pid: pid, executable: "nginx"}, nil
			},
		},
		{
			name:    "lookup error",
			content: "4242|elexam",
			find:    func(int) (ps.Process, error) { return nil, fmt.Errorf("permission denied") },
		},
		{
			name:    "malformed",
			content: "garbage",
			find: func(pid int) (ps.Process, error) {
				return &mockProcess{pid: pid, executable: "elexam"}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findProcessFunc = tt.find

			ledgerPath := filepath.Join(t.TempDir(), "ledger.xlsx")
			lock := NewLock(ledgerPath)
			if err := os.WriteFile(lock.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			if err := lock.Acquire(); err != nil {
				t.Fatalf("Acquire() over stale lock failed: %v", err)
			}
			defer lock.Release()

			content, _ := os.ReadFile(lock.Path())
			want := fmt.Sprintf("%d|", os.Getpid())
			if len(content) < len(want) || string(content[:len(want)]) != want {
				t.Errorf("lockfile = %q, want prefix %q", content, want)
			}
		})
	}
}
