package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/elexam/internal/constants"
)

// NoSitting marks a block without an exam sitting
var NoSitting = time.Date(constants.ReferenceYear, time.January, 1, 0, 0, 0, 0, time.UTC)

// Exam is one catalog entry: a subject, its label tag and the sitting date of each block.
type Exam struct {
	Subject string      `validate:"required"`
	Tag     string      `validate:"required"`
	Dates   []time.Time `validate:"required,min=1"`
}

// Equal reports full-value equality (subject, tag and every date).
func (e Exam) Equal(other Exam) bool {
	if e.Subject != other.Subject || e.Tag != other.Tag || len(e.Dates) != len(other.Dates) {
		return false
	}
	for i := range e.Dates {
		if !SameDay(e.Dates[i], other.Dates[i]) {
			return false
		}
	}
	return true
}

// HasSitting reports whether block i has an exam sitting.
func (e Exam) HasSitting(i int) bool {
	return i >= 0 && i < len(e.Dates) && !SameDay(e.Dates[i], NoSitting)
}

// FormatDates renders dates as "18.06,-,20.08".
func (e Exam) FormatDates() string {
	parts := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		if !e.HasSitting(i) {
			parts[i] = constants.NoSittingInput
			continue
		}
		parts[i] = d.Format(constants.DayMonthFormat)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the exam as [subject, tag, [dates]] so catalogs stay
// exchangeable with installations using the tuple layout.
func (e Exam) MarshalJSON() ([]byte, error) {
	dates := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		dates[i] = d.Format(constants.DateFormat)
	}
	return json.Marshal([]any{e.Subject, e.Tag, dates})
}

func (e *Exam) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("exam must be a [subject, tag, dates] array: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("exam must have 3 elements, got %d", len(raw))
	}

	var dates []string
	if err := json.Unmarshal(raw[0], &e.Subject); err != nil {
		return fmt.Errorf("parsing exam subject: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Tag); err != nil {
		return fmt.Errorf("parsing exam tag: %w", err)
	}
	if err := json.Unmarshal(raw[2], &dates); err != nil {
		return fmt.Errorf("parsing exam dates: %w", err)
	}

	e.Dates = make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, err := time.Parse(constants.DateFormat, s)
		if err != nil {
			return fmt.Errorf("parsing exam date %q: %w", s, err)
		}
		e.Dates = append(e.Dates, d)
	}
	return nil
}

// ParseExamDates parses "18.06,-,20.08" into reference-year dates; "-" is a block without a sitting.
func ParseExamDates(s string) ([]time.Time, error) {
	var dates []time.Time
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == constants.NoSittingInput {
			dates = append(dates, NoSitting)
			continue
		}
		d, err := time.Parse(constants.DayMonthFormat+".2006", part+"."+strconv.Itoa(constants.ReferenceYear))
		if err != nil {
			return nil, fmt.Errorf("invalid exam date %q, expected DD.MM", part)
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no exam dates given")
	}
	return dates, nil
}

// NormalizeDate moves a date onto the reference year, keeping month and day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(constants.ReferenceYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares calendar dates, ignoring clock time and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Label is the classification assigned for an exam subject and block.
type Label struct {
	Subject string
	Tag     string
	Year    int
	Block   int // 1-based; 0 when absent
}

func (l Label) String() string {
	s := l.Tag
	if l.Year != 0 {
		s += strconv.Itoa(l.Year)
	}
	if l.Block > 0 {
		s += strconv.Itoa(l.Block)
	}
	return s
}
