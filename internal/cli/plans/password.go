package plans

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/roster"
	"github.com/julianstephens/elexam/internal/suggest"
)

// PasswordCmd prints the password derived from a login, or with --id the
// password stored for a roster account.
type PasswordCmd struct {
	Login  string `arg:"" optional:"" help:"Ledger login, e.g. 25-01645."`
	ID     int    `name:"id" help:"Roster user ID whose stored password to show."`
	Roster string `help:"Roster snapshot (.yaml). Remembered between runs." type:"path"`
}

func (c *PasswordCmd) Run(ctx *cli.Context) error {
	return c.run(ctx, os.Stdout)
}

func (c *PasswordCmd) run(ctx *cli.Context, w io.Writer) error {
	switch {
	case c.Login != "" && c.ID != 0:
		return errors.Validationf("pass either a login or --id, not both")
	case c.Login != "":
		fmt.Fprintln(w, suggest.DerivePassword(c.Login))
		return nil
	case c.ID <= 0:
		return errors.Validationf("pass a login or a positive --id")
	}

	rosterPath, err := ctx.RememberedPath(constants.SettingRosterPath, c.Roster, "roster")
	if err != nil {
		return err
	}
	snap, err := roster.Load(rosterPath)
	if err != nil {
		return err
	}

	password, err := snap.GetUserPassword(c.ID)
	if errors.Is(err, errors.ErrUserNotFound) || errors.Is(err, errors.ErrDataInsufficient) {
		fmt.Fprintln(w, "Password not found")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, password)
	return nil
}
