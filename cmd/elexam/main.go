package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/cli/backups"
	"github.com/julianstephens/elexam/internal/cli/exams"
	"github.com/julianstephens/elexam/internal/cli/plans"
	"github.com/julianstephens/elexam/internal/cli/system"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Settings file path (.db or .json), a PostgreSQL connection string without password, or 'keyring'." type:"string" default:"${default_config}"`
	Debug    bool   `help:"Log debug output to stderr."`
	LogLevel string `help:"Log file level (debug, info, warn, error)." default:"info"`

	Init  system.InitCmd `cmd:"" help:"Initialize elexam storage."`
	Exams struct {
		List   exams.ListCmd   `cmd:"" help:"List the exam catalog." default:"1"`
		Add    exams.AddCmd    `cmd:"" help:"Add an exam."`
		Edit   exams.EditCmd   `cmd:"" help:"Edit an exam."`
		Delete exams.DeleteCmd `cmd:"" help:"Delete an exam."`
		Label  exams.LabelCmd  `cmd:"" help:"Show the label for a subject."`
		Export exams.ExportCmd `cmd:"" help:"Print the catalog as a share string."`
		Import exams.ImportCmd `cmd:"" help:"Replace the catalog with a share string."`
	} `cmd:"" help:"Manage the exam catalog."`
	Plan     plans.PlanCmd     `cmd:"" help:"Print suggested plans for ledger users."`
	Apply    plans.ApplyCmd    `cmd:"" help:"Suggest and apply plans for ledger users."`
	User     plans.UserCmd     `cmd:"" help:"Show roster accounts for emails."`
	Password plans.PasswordCmd `cmd:"" help:"Derive the password for a login, or show a stored one with --id."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Back up the ledger." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List ledger backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore the ledger from a backup."`
	} `cmd:"" help:"Manage ledger backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage the OS keyring entry."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Exam registration ledger reconciliation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, Level: CLI.LogLevel, ConfigDir: configDir(CLI.Config)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	store, err := storage.New(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	// Init creates the store and a derived password needs none; every
	// other command needs it loaded
	command := ctx.Command()
	if command != "init" && !strings.HasPrefix(command, "keyring") && command != "password <login>" {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	appCtx := &cli.Context{Store: store}
	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}

// configDir is where logs go: next to a settings file, or the default
// config directory for database connections.
func configDir(config string) string {
	if config == storage.KeyringConfig || strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://") {
		config = constants.DefaultConfigPath
	}
	if strings.HasPrefix(config, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			config = filepath.Join(home, config[2:])
		}
	}
	return filepath.Dir(config)
}
