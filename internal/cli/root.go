package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/labels"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/storage"
)

type Context struct {
	Store storage.Provider
	Now   func() time.Time
}

// Labels returns a label engine over the settings store.
func (c *Context) Labels() *labels.Engine {
	opts := []labels.Option{}
	if c.Now != nil {
		opts = append(opts, labels.WithClock(c.Now))
	}
	return labels.NewEngine(labels.NewSettingsStore(c.Store), opts...)
}

// Clock returns the context clock, defaulting to the wall clock.
func (c *Context) Clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// RememberedPath returns value when set, else the path stored under key.
// A given value is stored for the next run.
func (c *Context) RememberedPath(key, value, flag string) (string, error) {
	if value != "" {
		if err := c.Store.SetSetting(key, value); err != nil {
			logger.Warn("Failed to remember path", "key", key, "error", err)
		}
		return value, nil
	}

	stored, ok, err := c.Store.GetSetting(key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || stored == "" {
		return "", fmt.Errorf("no %s given and none remembered, pass --%s", flag, flag)
	}
	return stored, nil
}

// ParseIndex parses a 1-based catalog position.
func ParseIndex(s string, length int) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if idx < 1 || idx > length {
		return 0, fmt.Errorf("index %d out of range (1-%d)", idx, length)
	}
	return idx - 1, nil
}

// ParseDate parses a DD.MM.YYYY date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(constants.LedgerDateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected DD.MM.YYYY", s)
	}
	return t, nil
}
