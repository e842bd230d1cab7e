package plans

import (
	"io"
	"os"

	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/ledger"
	"github.com/julianstephens/elexam/internal/models"
	"github.com/julianstephens/elexam/internal/roster"
)

// UserCmd prints the roster accounts registered under each email. With
// --ledger the user's selected subjects are shown too.
type UserCmd struct {
	Ledger string   `help:"Ledger workbook (.xlsx) to read selected subjects from." type:"path"`
	Roster string   `help:"Roster snapshot (.yaml). Remembered between runs." type:"path"`
	Emails []string `arg:"" help:"Emails to look up."`
}

func (c *UserCmd) Run(ctx *cli.Context) error {
	return c.run(ctx, os.Stdout)
}

func (c *UserCmd) run(ctx *cli.Context, w io.Writer) error {
	rosterPath, err := ctx.RememberedPath(constants.SettingRosterPath, c.Roster, "roster")
	if err != nil {
		return err
	}
	snap, err := roster.Load(rosterPath)
	if err != nil {
		return err
	}

	var book *ledger.Workbook
	if c.Ledger != "" {
		ledgerPath, err := ctx.RememberedPath(constants.SettingLedgerPath, c.Ledger, "ledger")
		if err != nil {
			return err
		}
		if book, err = ledger.Open(ledgerPath); err != nil {
			return err
		}
		defer book.Close()
	}

	for _, email := range c.Emails {
		infos, err := snap.GetUserInfo(email)
		if errors.Is(err, errors.ErrUserNotFound) {
			cli.RenderWarning(w, "%s: not found in roster", email)
			continue
		}
		if err != nil {
			return err
		}

		var table *models.UserTableData
		if book != nil {
			data, err := book.GetUserData(email)
			switch {
			case err == nil:
				table = &data
			case errors.Is(err, errors.ErrUserNotFound):
				cli.RenderWarning(w, "%s: not found in ledger", email)
			default:
				return err
			}
		}

		for _, info := range infos {
			info.Table = table
			cli.RenderUser(w, info)
		}
	}
	return nil
}
