package errors

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/elexam/internal/logger"
)

const prefix = "Error: "

// Swapped in tests.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// Format renders err for the terminal; nil renders as "".
func Format(err error) string {
	if err == nil {
		return ""
	}
	return prefix + err.Error()
}

func Formatf(format string, args ...any) string {
	return prefix + fmt.Sprintf(format, args...)
}

// ExitCode maps err to a process status: 0 for nil, 3 when the ledger is
// held by another run, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case Is(err, ErrLocked):
		return 3
	default:
		return 1
	}
}

// Fatal reports a failed command and exits. A nil err is ignored.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command failed", "error", err, "code", ExitCode(err))
	fmt.Fprintln(stderr, Format(err))
	exit(ExitCode(err))
}
