package plans

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/ledger"
	"github.com/julianstephens/elexam/internal/roster"
)

// PlanCmd prints the suggested plan of every ledger user without applying it.
type PlanCmd struct {
	Sources `embed:""`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	ledgerPath, rosterPath, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	book, err := ledger.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer book.Close()

	snap, err := roster.Load(rosterPath)
	if err != nil {
		return err
	}

	plans, err := buildPlans(context.Background(), ctx, book, snap, c.Emails, actions.AllCapabilities(), os.Stdout)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("No users to plan.")
		return nil
	}

	for _, p := range plans {
		cli.RenderPlan(os.Stdout, p.User, p.Actions, p.Issues)
	}
	return nil
}
