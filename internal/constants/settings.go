package constants

const (
	// Setting keys
	SettingExamCatalog = "labels.exams"
	SettingLedgerPath  = "cache.ledger_path"
	SettingRosterPath  = "cache.roster_path"

	// Ledger column headers (matched case-insensitively)
	ColumnEmail        = "email"
	ColumnLogin        = "логин"
	ColumnPassword     = "пароль"
	ColumnSubject      = "предмет"
	ColumnSelectedDate = "выбранная дата"
	ColumnFullName     = "фио"
)
