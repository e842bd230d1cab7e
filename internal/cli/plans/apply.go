package plans

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/julianstephens/elexam/internal/backup"
	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/executor"
	"github.com/julianstephens/elexam/internal/ledger"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/roster"
)

// ApplyCmd plans every ledger user and executes the plans under the ledger lock.
type ApplyCmd struct {
	Sources `embed:""`

	Yes        bool `short:"y" help:"Apply without asking for confirmation."`
	OnlyRemote bool `xor:"target" help:"Only change the roster."`
	OnlyLedger bool `xor:"target" help:"Only change the ledger."`
	NoBackup   bool `help:"Do not back up the ledger before applying."`
}

func (c *ApplyCmd) Run(ctx *cli.Context) error {
	ledgerPath, rosterPath, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	lock := ledger.NewLock(ledgerPath)
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("ledger is in use: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release ledger lock", "path", lock.Path(), "error", err)
		}
	}()

	book, err := ledger.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer book.Close()

	snap, err := roster.Load(rosterPath)
	if err != nil {
		return err
	}

	// Leave a collaborator as a nil interface so its capability is absent
	var remote executor.RemoteMutator
	var ledgerMutator executor.LedgerMutator
	if !c.OnlyLedger {
		remote = snap
	}
	if !c.OnlyRemote {
		ledgerMutator = book
	}
	exec := executor.New(remote, ledgerMutator)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	plans, err := buildPlans(runCtx, ctx, book, snap, c.Emails, exec.Capabilities(), os.Stdout)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("Nothing to apply.")
		return nil
	}
	for _, p := range plans {
		cli.RenderPlan(os.Stdout, p.User, p.Actions, p.Issues)
	}

	if !c.Yes {
		ok, err := cli.Confirm(fmt.Sprintf("Apply %d plan(s)?", len(plans)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if !c.NoBackup && !c.OnlyRemote {
		backupPath, err := backup.NewManager(ledgerPath).CreateBackup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("✓ Ledger backed up to %s\n", backupPath)
	}

	failed := 0
	for _, p := range plans {
		report := exec.PerformActions(runCtx, p.User, p.Actions)
		cli.RenderReport(os.Stdout, report)
		failed += len(report.Failures)
	}
	if failed > 0 {
		return fmt.Errorf("%d action(s) failed", failed)
	}

	fmt.Printf("Applied %d plan(s)\n", len(plans))
	return nil
}
