package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/elexam/internal/constants"
)

// ParseSelectedDate reads a "выбранная дата" cell. Text cells use one of
// the ledger layouts; date cells arrive as spreadsheet serial numbers.
// Unparseable values yield nil.
func ParseSelectedDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range constants.LedgerDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return &t
		}
	}
	return nil
}
