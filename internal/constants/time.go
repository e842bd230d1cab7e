package constants

const (
	// DateFormat is the ISO date format used for persisted exam dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DayMonthFormat is the format exam dates are entered and shown in (DD.MM)
	DayMonthFormat = "02.01"

	// LedgerDateFormat is the date format of the ledger (DD.MM.YYYY)
	LedgerDateFormat = "02.01.2006"

	// ReferenceYear is the leap year exam dates are normalized onto
	ReferenceYear = 2000

	// AcademicYearStartMonth is the month the academic year begins
	AcademicYearStartMonth = 9

	// NoSittingInput is typed instead of a date for a block without a sitting
	NoSittingInput = "-"
)

// LedgerDateLayouts are tried in order when parsing a selected date cell
var LedgerDateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}
