// Package ledger reads and edits the registration ledger, an xlsx workbook
// whose first row holds column headers and whose rows are keyed by email.
package ledger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
)

// Workbook is an open ledger. Edits stay in memory until Persist.
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open loads the ledger at path.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ledger not found: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Persist saves the workbook in place.
func (w *Workbook) Persist() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save ledger %s: %w", w.path, err)
	}
	return nil
}

// DataSheet returns the main sheet: the active one when it has a known
// name, else the first sheet with a known name.
func (w *Workbook) DataSheet() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dataSheet()
}

func (w *Workbook) dataSheet() (string, error) {
	active := w.file.GetSheetName(w.file.GetActiveSheetIndex())
	if isDataSheetName(active) {
		return active, nil
	}
	for _, name := range w.file.GetSheetList() {
		if isDataSheetName(name) {
			return name, nil
		}
	}
	return "", errors.NotFoundf("no data sheet in %s (expected one of %s)", w.path, strings.Join(constants.DataSheetNames, ", "))
}

func isDataSheetName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range constants.DataSheetNames {
		if name == known {
			return true
		}
	}
	return false
}

// sheet is a snapshot of one worksheet's cell values.
type sheet struct {
	name    string
	rows    [][]string
	columns map[string]int
}

func (w *Workbook) readSheet(name string) (*sheet, error) {
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	s := &sheet{name: name, rows: rows, columns: make(map[string]int)}
	if len(rows) > 0 {
		for i, header := range rows[0] {
			key := strings.ToLower(strings.TrimSpace(header))
			if key == "" {
				continue
			}
			if _, seen := s.columns[key]; !seen {
				s.columns[key] = i
			}
		}
	}
	return s, nil
}

// column returns the 0-based index of the named column.
func (s *sheet) column(name string) (int, bool) {
	idx, ok := s.columns[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

func (s *sheet) value(row, col int) string {
	if row >= len(s.rows) || col < 0 || col >= len(s.rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.rows[row][col])
}

// rowsFor returns the 0-based data row indexes whose email cell equals email.
func (s *sheet) rowsFor(email string) []int {
	col, ok := s.column(constants.ColumnEmail)
	if !ok {
		return nil
	}
	var out []int
	for r := 1; r < len(s.rows); r++ {
		if s.value(r, col) == email {
			out = append(out, r)
		}
	}
	return out
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row+1)
	return name
}

// GetAllUsersData returns one record per email on the data sheet, in order
// of first appearance. Rows sharing an email accumulate subjects.
func (w *Workbook) GetAllUsersData() ([]models.UserTableData, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collect("")
}

// GetUserData returns the ledger record for email.
func (w *Workbook) GetUserData(email string) (models.UserTableData, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	email = strings.TrimSpace(email)
	users, err := w.collect(email)
	if err != nil {
		return models.UserTableData{}, err
	}
	if len(users) == 0 {
		return models.UserTableData{}, errors.ErrUserNotFound.WithCause(fmt.Errorf("no ledger rows for %s", email))
	}
	return users[0], nil
}

// collect gathers records from the data sheet, limited to one email when
// only is non-empty.
func (w *Workbook) collect(only string) ([]models.UserTableData, error) {
	name, err := w.dataSheet()
	if err != nil {
		return nil, err
	}
	s, err := w.readSheet(name)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int)
	for _, c := range []string{constants.ColumnEmail, constants.ColumnLogin, constants.ColumnSubject, constants.ColumnSelectedDate, constants.ColumnFullName} {
		idx, ok := s.column(c)
		if !ok {
			return nil, errors.NotFoundf("column %q not found on sheet %s", c, name)
		}
		cols[c] = idx
	}

	var order []string
	byEmail := make(map[string]*models.UserTableData)
	for r := 1; r < len(s.rows); r++ {
		email := s.value(r, cols[constants.ColumnEmail])
		if email == "" || email == constants.DeletedMarker {
			continue
		}
		if only != "" && email != only {
			continue
		}

		user, ok := byEmail[email]
		if !ok {
			user = &models.UserTableData{
				Email:    email,
				Login:    s.value(r, cols[constants.ColumnLogin]),
				FullName: fullName(s, r, cols[constants.ColumnFullName]),
			}
			byEmail[email] = user
			order = append(order, email)
		}

		subject := s.value(r, cols[constants.ColumnSubject])
		if subject == "" {
			continue
		}
		user.Subjects = append(user.Subjects, models.TableSubject{
			Name: subject,
			Date: ParseSelectedDate(s.value(r, cols[constants.ColumnSelectedDate])),
		})
	}

	out := make([]models.UserTableData, 0, len(order))
	for _, email := range order {
		out = append(out, *byEmail[email])
	}
	return out, nil
}

// fullName joins the фио column with the two columns after it.
func fullName(s *sheet, row, col int) string {
	var parts []string
	for c := col; c < col+3; c++ {
		if v := s.value(row, c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// MarkRegistered fills the user's rows with the registered color on every sheet.
func (w *Workbook) MarkRegistered(email string) error {
	return w.markRows(email, constants.FillRegistered)
}

// MarkSkipped fills the user's rows with the skipped color on every sheet.
func (w *Workbook) MarkSkipped(email string) error {
	return w.markRows(email, constants.FillSkipped)
}

func (w *Workbook) markRows(email, color string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.eachMatchingRow(email, func(s *sheet, row int) error {
		for c := 0; c < constants.LedgerMarkedColumns; c++ {
			if err := w.fill(s.name, cellName(c, row), color); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUser clears the leading cells of the user's rows on every sheet and
// leaves the deleted marker in the email cell.
func (w *Workbook) DeleteUser(email string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.eachMatchingRow(email, func(s *sheet, row int) error {
		emailCol, _ := s.column(constants.ColumnEmail)
		for c := 0; c < constants.LedgerMarkedColumns; c++ {
			if err := w.file.SetCellStr(s.name, cellName(c, row), ""); err != nil {
				return fmt.Errorf("failed to clear %s!%s: %w", s.name, cellName(c, row), err)
			}
		}
		return w.file.SetCellStr(s.name, cellName(emailCol, row), constants.DeletedMarker)
	})
}

// SetComment attaches a comment to the user's first email cell on the data
// sheet and highlights it.
func (w *Workbook) SetComment(email, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name, err := w.dataSheet()
	if err != nil {
		return err
	}
	s, err := w.readSheet(name)
	if err != nil {
		return err
	}
	rows := s.rowsFor(email)
	if len(rows) == 0 {
		return errors.ErrUserNotFound.WithCause(fmt.Errorf("no ledger rows for %s", email))
	}

	emailCol, _ := s.column(constants.ColumnEmail)
	cell := cellName(emailCol, rows[0])
	// a cell holds at most one comment
	_ = w.file.DeleteComment(name, cell)
	if err := w.file.AddComment(name, excelize.Comment{
		Cell:      cell,
		Author:    constants.CommentAuthor,
		Paragraph: []excelize.RichTextRun{{Text: text}},
	}); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return w.fill(name, cell, constants.FillCommented)
}

// ChangeColumns writes values into the user's rows on every sheet having
// the named columns. Columns a sheet lacks are skipped on that sheet.
func (w *Workbook) ChangeColumns(email string, changes []models.ColumnChange) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.eachMatchingRow(email, func(s *sheet, row int) error {
		for _, change := range changes {
			col, ok := s.column(change.Column)
			if !ok {
				continue
			}
			if err := w.file.SetCellStr(s.name, cellName(col, row), change.Value); err != nil {
				return fmt.Errorf("failed to write %s on %s: %w", change.Column, s.name, err)
			}
		}
		return nil
	})
}

// eachMatchingRow calls fn for every row on every sheet whose email cell
// equals email. Sheets without an email column are ignored; no match at all
// is ErrUserNotFound.
func (w *Workbook) eachMatchingRow(email string, fn func(s *sheet, row int) error) error {
	email = strings.TrimSpace(email)
	matched := 0
	for _, name := range w.file.GetSheetList() {
		s, err := w.readSheet(name)
		if err != nil {
			return err
		}
		if _, ok := s.column(constants.ColumnEmail); !ok {
			logger.Debug("Sheet has no email column", "sheet", name)
			continue
		}
		for _, row := range s.rowsFor(email) {
			matched++
			if err := fn(s, row); err != nil {
				return err
			}
		}
	}
	if matched == 0 {
		return errors.ErrUserNotFound.WithCause(fmt.Errorf("no ledger rows for %s", email))
	}
	return nil
}

// fill sets a solid background on cell, keeping the rest of its style.
func (w *Workbook) fill(sheetName, cell, color string) error {
	styleID, err := w.file.GetCellStyle(sheetName, cell)
	if err != nil {
		return fmt.Errorf("failed to read style of %s!%s: %w", sheetName, cell, err)
	}
	style, err := w.file.GetStyle(styleID)
	if err != nil || style == nil {
		style = &excelize.Style{}
	}
	style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}

	newID, err := w.file.NewStyle(style)
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	return w.file.SetCellStyle(sheetName, cell, cell, newID)
}

// Fill returns the background color of cell, "" when it has none.
func (w *Workbook) Fill(sheetName, cell string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	styleID, err := w.file.GetCellStyle(sheetName, cell)
	if err != nil {
		return "", err
	}
	style, err := w.file.GetStyle(styleID)
	if err != nil {
		return "", err
	}
	if style == nil || len(style.Fill.Color) == 0 {
		return "", nil
	}
	color := strings.TrimPrefix(strings.ToUpper(style.Fill.Color[0]), "#")
	if len(color) == 8 {
		// drop the alpha channel of ARGB values
		color = color[2:]
	}
	return color, nil
}
