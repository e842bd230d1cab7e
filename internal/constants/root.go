package constants

import "time"

const (
	AppName            = "elexam"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/elexam/elexam.db"
	LedgerLockSuffix   = ".elexam.lock"
	Version            = "v0.3.0"

	// EnvDBConnection can hold a PostgreSQL connection string instead of the keyring
	EnvDBConnection = "ELEXAM_DB_CONNECTION"

	// Roster sources
	SourceAD     = "AD"
	SourceELS    = "ELS"
	SourceElexam = "elexam"

	// UnknownPassword is written to the ledger when the remote password cannot be derived
	UnknownPassword = "<Неизвестно>"

	// RandomPasswordPrefix and RandomPasswordLength describe the fallback password token
	RandomPasswordPrefix = "EL_"
	RandomPasswordLength = 6

	// Password derivation: (last PasswordDigits of login + PasswordOffset) * PasswordFactor
	PasswordDigits = 5
	PasswordOffset = 23000
	PasswordFactor = 15

	// PrepTagMarker marks preparatory-program users in the roster tag set
	PrepTagMarker = "spo"

	// CommentAuthor is the author recorded on ledger comments
	CommentAuthor = "elexam"

	// DeletedMarker replaces the email of a row removed from the ledger
	DeletedMarker = "<deleted>"

	// LedgerMarkedColumns is the number of leading cells styled or cleared per row
	LedgerMarkedColumns = 9

	// Ledger fills (RGB)
	FillRegistered = "558ED5"
	FillSkipped    = "FF3838"
	FillCommented  = "A9D08E"

	// PlanWorkers bounds concurrent per-user planning
	PlanWorkers = 8

	// BookingLeadTime is how close a block may start before it is skipped
	BookingLeadTime = 24 * time.Hour
)

// PrepSubjectMarkers mark preparatory-program subjects in the ledger
var PrepSubjectMarkers = []string{"подготовка к егэ", "на базе спо"}

// DataSheetNames are the accepted names of the ledger's main sheet
var DataSheetNames = []string{"лист 1", "лист1", "общий", "sheet 1", "sheet1"}
