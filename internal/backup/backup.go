// Package backup keeps timestamped copies of the ledger workbook so an
// applied plan can be undone by hand.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/elexam/internal/logger"
)

const (
	// MaxBackups is the number of backups kept per ledger
	MaxBackups = 14
	// BackupDirName is created next to the ledger
	BackupDirName = "backups"

	timestampFormat = "20060102-150405"
)

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists and restores backups of one ledger.
type Manager struct {
	ledgerPath string
	backupDir  string
	prefix     string
	suffix     string
	now        func() time.Time
}

func NewManager(ledgerPath string) *Manager {
	ext := filepath.Ext(ledgerPath)
	return &Manager{
		ledgerPath: ledgerPath,
		backupDir:  filepath.Join(filepath.Dir(ledgerPath), BackupDirName),
		prefix:     strings.TrimSuffix(filepath.Base(ledgerPath), ext) + "-",
		suffix:     ext,
		now:        time.Now,
	}
}

func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup copies the ledger into the backup directory and drops the
// oldest backups beyond MaxBackups.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// skipRotation keeps the backup taken by a restore from evicting the one
// being restored.
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.ledgerPath); os.IsNotExist(err) {
		return "", fmt.Errorf("ledger does not exist: %s", m.ledgerPath)
	}

	backupPath, err := m.uniquePath()
	if err != nil {
		return "", err
	}
	if err := copyFile(m.ledgerPath, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up ledger: %w", err)
	}
	logger.Info("Created ledger backup", "path", backupPath)

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
		}
	}
	return backupPath, nil
}

func (m *Manager) uniquePath() (string, error) {
	stamp := m.now().Format(timestampFormat)
	path := filepath.Join(m.backupDir, m.prefix+stamp+m.suffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", m.prefix, stamp, counter, m.suffix))
	}
}

// ListBackups returns the ledger's backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix) || !strings.HasSuffix(name, m.suffix) {
			continue
		}
		timestamp, counter, ok := m.parseName(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// counters order backups taken within one second
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: timestamp.Add(time.Duration(counter)),
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) parseName(name string) (time.Time, int, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, m.prefix), m.suffix)
	counter := 0
	if len(stamp) > len(timestampFormat) && stamp[len(timestampFormat)] == '-' {
		n, err := strconv.Atoi(stamp[len(timestampFormat)+1:])
		if err != nil {
			return time.Time{}, 0, false
		}
		counter = n
		stamp = stamp[:len(timestampFormat)]
	}
	timestamp, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return timestamp, counter, true
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the ledger with backupPath. The current ledger is
// backed up first.
func (m *Manager) RestoreBackup(backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := verifyBackup(backupPath); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.ledgerPath); err == nil {
		current, err := m.createBackup(true)
		if err != nil {
			return fmt.Errorf("failed to back up current ledger before restore: %w", err)
		}
		logger.Info("Backed up ledger before restore", "path", current)
	}

	// copy to a temp file, then rename over the ledger
	tempPath := m.ledgerPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.ledgerPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore ledger: %w", err)
	}
	return nil
}

// verifyBackup checks that path opens as a workbook with at least one sheet.
func verifyBackup(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(f.GetSheetList()) == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
