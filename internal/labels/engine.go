// Package labels owns the exam catalog and assigns time-blocked labels to
// exam subjects.
package labels

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
	"github.com/julianstephens/elexam/internal/validation"
)

// Engine serializes catalog mutations as load-modify-persist cycles.
type Engine struct {
	mu       sync.Mutex
	store    Store
	validate *validation.Validator
	now      func() time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock used to pick the label year and the
// upcoming block.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		validate: validation.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exams returns a copy of the stored catalog.
func (e *Engine) Exams() ([]models.Exam, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.LoadExams()
}

// AddExams appends the exams that are not in the catalog yet.
func (e *Engine) AddExams(exams ...models.Exam) error {
	prepared, err := e.prepare(exams)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	catalog, err := e.store.LoadExams()
	if err != nil {
		return err
	}
	added := 0
	for _, exam := range prepared {
		if indexOf(catalog, exam) >= 0 {
			continue
		}
		catalog = append(catalog, exam)
		added++
	}
	if added == 0 {
		return nil
	}

	logger.Debug("Adding exams to catalog", "count", added)
	return e.store.SaveExams(catalog)
}

// EditExam replaces old with updated.
func (e *Engine) EditExam(old, updated models.Exam) error {
	prepared, err := e.prepare([]models.Exam{updated})
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	catalog, err := e.store.LoadExams()
	if err != nil {
		return err
	}
	idx := indexOf(catalog, old)
	if idx < 0 {
		return errors.NotFoundf("exam %q not found", old.Subject)
	}
	catalog[idx] = prepared[0]
	return e.store.SaveExams(catalog)
}

// DeleteExam removes exam from the catalog.
func (e *Engine) DeleteExam(exam models.Exam) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	catalog, err := e.store.LoadExams()
	if err != nil {
		return err
	}
	idx := indexOf(catalog, exam)
	if idx < 0 {
		return errors.NotFoundf("exam %q not found", exam.Subject)
	}
	catalog = append(catalog[:idx], catalog[idx+1:]...)
	return e.store.SaveExams(catalog)
}

// GetLabel returns the label for subject. With a selected date the block
// sitting on that day is used; otherwise the first block starting more than
// a day from now. Exams sharing a subject are searched in catalog order.
func (e *Engine) GetLabel(subject string, selected *time.Time) (models.Label, error) {
	exams, err := e.Exams()
	if err != nil {
		return models.Label{}, err
	}

	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(subject))
	now := e.now()
	known := false
	for _, exam := range exams {
		if fold.String(strings.TrimSpace(exam.Subject)) != want {
			continue
		}
		known = true
		if block := pickBlock(exam, selected, now); block >= 0 {
			return models.Label{
				Subject: exam.Subject,
				Tag:     exam.Tag,
				Year:    now.Year(),
				Block:   block + 1,
			}, nil
		}
	}
	if !known {
		return models.Label{}, errors.NoSuitableLabelf("no exam named %q in catalog", subject)
	}
	return models.Label{}, errors.NoSuitableLabelf("no suitable block for %q", subject)
}

// pickBlock returns the 0-based block of exam matching selected, or the
// upcoming block when selected is nil; -1 when none fits.
func pickBlock(exam models.Exam, selected *time.Time, now time.Time) int {
	if selected != nil {
		target := models.NormalizeDate(*selected)
		for i, d := range exam.Dates {
			if exam.HasSitting(i) && models.SameDay(models.NormalizeDate(d), target) {
				return i
			}
		}
		return -1
	}

	today := models.NormalizeDate(now)
	for i, d := range exam.Dates {
		if exam.HasSitting(i) && today.Before(models.NormalizeDate(d).Add(-constants.BookingLeadTime)) {
			return i
		}
	}
	return -1
}

// Export encodes the catalog as a share string.
func (e *Engine) Export() ([]byte, error) {
	exams, err := e.Exams()
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []models.Exam{}
	}

	data, err := json.Marshal(exams)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize exam catalog: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out, nil
}

// Import replaces the whole catalog with the one encoded in share.
func (e *Engine) Import(share []byte) error {
	raw := strings.TrimSpace(string(share))
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return errors.Validationf("share string is not valid base64").WithCause(err)
	}

	var exams []models.Exam
	if err := json.Unmarshal(data, &exams); err != nil {
		return errors.Validationf("share string does not hold an exam catalog").WithCause(err)
	}
	prepared, err := e.prepare(exams)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Info("Importing exam catalog", "count", len(prepared))
	return e.store.SaveExams(prepared)
}

// prepare validates exams and moves their dates onto the reference year.
func (e *Engine) prepare(exams []models.Exam) ([]models.Exam, error) {
	out := make([]models.Exam, 0, len(exams))
	for _, exam := range exams {
		exam.Subject = strings.TrimSpace(exam.Subject)
		exam.Tag = strings.TrimSpace(exam.Tag)
		if err := e.validate.Validate(exam); err != nil {
			return nil, err
		}

		dates := make([]time.Time, len(exam.Dates))
		for i, d := range exam.Dates {
			dates[i] = models.NormalizeDate(d)
		}
		exam.Dates = dates
		out = append(out, exam)
	}
	return out, nil
}

func indexOf(catalog []models.Exam, exam models.Exam) int {
	for i := range catalog {
		if catalog[i].Equal(exam) {
			return i
		}
	}
	return -1
}
