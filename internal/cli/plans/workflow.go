package plans

import (
	"context"
	"fmt"
	"io"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/ledger"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
	"github.com/julianstephens/elexam/internal/roster"
	"github.com/julianstephens/elexam/internal/suggest"
)

// Sources are the inputs shared by plan and apply.
type Sources struct {
	Ledger string   `help:"Ledger workbook (.xlsx). Remembered between runs." type:"path"`
	Roster string   `help:"Roster snapshot (.yaml). Remembered between runs." type:"path"`
	Emails []string `arg:"" optional:"" help:"Only plan these ledger emails."`
}

func (s *Sources) resolve(ctx *cli.Context) (ledgerPath, rosterPath string, err error) {
	ledgerPath, err = ctx.RememberedPath(constants.SettingLedgerPath, s.Ledger, "ledger")
	if err != nil {
		return "", "", err
	}
	rosterPath, err = ctx.RememberedPath(constants.SettingRosterPath, s.Roster, "roster")
	if err != nil {
		return "", "", err
	}
	return ledgerPath, rosterPath, nil
}

// userPlan is the finalized plan of one user.
type userPlan struct {
	User    models.UserInfo
	Actions []*actions.Action
	Issues  []error
}

// buildPlans reads ledger users, matches them to roster accounts and
// suggests a finalized plan for each, restricted to caps.
func buildPlans(ctx context.Context, appCtx *cli.Context, book *ledger.Workbook, snap *roster.Snapshot, emails []string, caps actions.Capabilities, w io.Writer) ([]userPlan, error) {
	tables, err := readTables(book, emails, w)
	if err != nil {
		return nil, err
	}

	var users []models.UserInfo
	for i := range tables {
		infos, err := snap.GetUserInfo(tables[i].Email)
		if err != nil {
			if errors.Is(err, errors.ErrUserNotFound) {
				cli.RenderWarning(w, "%s: not found in roster, skipped", tables[i].Email)
				continue
			}
			return nil, err
		}
		for _, info := range infos {
			info.Table = &tables[i]
			users = append(users, info)
		}
	}

	suggester := suggest.New(appCtx.Labels(),
		suggest.WithPasswordLookup(snap),
		suggest.WithClock(appCtx.Clock()),
	)
	results, err := suggester.SuggestAll(ctx, users)
	if err != nil {
		return nil, err
	}

	plans := make([]userPlan, 0, len(results))
	for _, res := range results {
		list := actions.NewList(caps)
		for _, err := range list.AddAll(res.Actions) {
			logger.Debug("Dropped suggested action", "user", res.User.Email, "error", err)
		}
		if list.Len() == 0 {
			if err := list.Add(actions.SilentSkip()); err != nil {
				return nil, err
			}
		}
		acts, err := list.Finalize()
		if err != nil {
			return nil, fmt.Errorf("failed to finalize plan for %s: %w", res.User.Email, err)
		}
		plans = append(plans, userPlan{User: res.User, Actions: acts, Issues: res.Issues})
	}
	return plans, nil
}

func readTables(book *ledger.Workbook, emails []string, w io.Writer) ([]models.UserTableData, error) {
	if len(emails) == 0 {
		return book.GetAllUsersData()
	}

	tables := make([]models.UserTableData, 0, len(emails))
	for _, email := range emails {
		table, err := book.GetUserData(email)
		if err != nil {
			if errors.Is(err, errors.ErrUserNotFound) {
				cli.RenderWarning(w, "%s: not found in ledger, skipped", email)
				continue
			}
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}
