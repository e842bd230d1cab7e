package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/elexam/internal/backup"
	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/ledger"
)

// LedgerFlag selects the ledger whose backups are managed.
type LedgerFlag struct {
	Ledger string `help:"Ledger workbook (.xlsx). Remembered between runs." type:"path"`
}

func (f LedgerFlag) manager(ctx *cli.Context) (*backup.Manager, string, error) {
	path, err := ctx.RememberedPath(constants.SettingLedgerPath, f.Ledger, "ledger")
	if err != nil {
		return nil, "", err
	}
	return backup.NewManager(path), path, nil
}

type BackupCreateCmd struct {
	LedgerFlag `embed:""`
}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, _, err := c.manager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct {
	LedgerFlag `embed:""`
}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, _, err := c.manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		fmt.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	fmt.Printf("\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	LedgerFlag `embed:""`

	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Restore without asking for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, ledgerPath, err := c.manager(ctx)
	if err != nil {
		return err
	}

	backupPath, err := c.resolve(mgr)
	if err != nil {
		return err
	}

	if !c.Yes {
		cli.RenderWarning(os.Stdout, "⚠️  This will replace %s with the backup.", ledgerPath)
		fmt.Println("A backup of the current ledger will be created before restoring.")
		ok, err := cli.Confirm(fmt.Sprintf("Restore from %s?", filepath.Base(backupPath)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	lock := ledger.NewLock(ledgerPath)
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("ledger is in use: %w", err)
	}
	defer lock.Release()

	if err := mgr.RestoreBackup(backupPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Println("✓ Ledger restored successfully!")
	return nil
}

// resolve accepts a path or a file name inside the backup directory.
func (c *BackupRestoreCmd) resolve(mgr *backup.Manager) (string, error) {
	if _, err := os.Stat(c.BackupFile); err == nil {
		return filepath.Abs(c.BackupFile)
	}
	if filepath.IsAbs(c.BackupFile) {
		return "", fmt.Errorf("backup file not found: %s", c.BackupFile)
	}

	inDir := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
	if _, err := os.Stat(inDir); err != nil {
		return "", fmt.Errorf("backup file not found: tried current directory and %s", mgr.GetBackupDir())
	}
	return inDir, nil
}
