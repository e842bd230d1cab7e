// Package suggest proposes remediation actions that bring a roster user and
// its ledger row into agreement.
package suggest

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
)

// LabelSource assigns labels to exam subjects.
type LabelSource interface {
	GetLabel(subject string, selected *time.Time) (models.Label, error)
}

// PasswordLookup reads a user's current remote password. Implementations
// used with SuggestAll must be safe for concurrent reads.
type PasswordLookup interface {
	GetUserPassword(userID int) (string, error)
}

// Result is the plan proposed for one user.
type Result struct {
	User    models.UserInfo
	Actions []*actions.Action
	// Issues holds subjects that could not be labelled.
	Issues []error
}

type Suggester struct {
	labels    LabelSource
	passwords PasswordLookup
	now       func() time.Time
	workers   int
}

type Option func(*Suggester)

func WithPasswordLookup(lookup PasswordLookup) Option {
	return func(s *Suggester) {
		s.passwords = lookup
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Suggester) {
		s.now = now
	}
}

// WithWorkers bounds the goroutines used by SuggestAll.
func WithWorkers(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.workers = n
		}
	}
}

func New(labels LabelSource, opts ...Option) *Suggester {
	s := &Suggester{
		labels:  labels,
		now:     time.Now,
		workers: constants.PlanWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest plans one user. The returned actions are deduplicated and ordered
// by weight, heaviest first.
func (s *Suggester) Suggest(user models.UserInfo) Result {
	res := Result{User: user}

	if user.Registered != nil && user.Registered.Before(s.lastAutumn()) {
		res.Actions = []*actions.Action{actions.Delete()}
		return res
	}

	if user.Table == nil {
		return res
	}

	fold := cases.Fold()
	if user.Table.Email != "" && fold.String(user.Table.Email) != fold.String(user.Email) {
		// fuzzy roster matches can land on the wrong account
		res.Actions = []*actions.Action{actions.SilentSkip()}
		return res
	}

	if user.Login != "" && user.Table.Login != "" && user.Login != user.Table.Login {
		res.add(actions.ChangeLogin())
		if user.Source != constants.SourceAD {
			s.suggestPassword(&res, user, fold)
		}
	}

	for _, subject := range user.Table.Subjects {
		label, err := s.labels.GetLabel(subject.Name, subject.Date)
		if err != nil {
			logger.Warn("Cannot get label for subject", "user", user.Email, "subject", subject.Name, "error", err)
			res.Issues = append(res.Issues, err)
			continue
		}
		text := label.String()
		if user.HasTag(text) {
			continue
		}
		if a, err := actions.AddLabel(text); err == nil {
			res.add(a)
		}
	}

	actions.SortByWeight(res.Actions)
	return res
}

func (s *Suggester) suggestPassword(res *Result, user models.UserInfo, fold cases.Caser) {
	if s.passwords != nil {
		password, err := s.passwords.GetUserPassword(user.ID)
		if err == nil && password != "" && password != constants.UnknownPassword {
			res.add(mustAction(actions.ChangePasswordLocal(password)))
			return
		}
		if err != nil {
			logger.Debug("Password lookup failed", "user", user.Email, "error", err)
		}
	}

	if isPreparatory(user, fold) {
		res.add(mustAction(actions.ChangePasswordLocal(constants.UnknownPassword)))
		return
	}

	password := DerivePassword(user.Table.Login)
	res.add(mustAction(actions.ChangePasswordRemote(password)))
	res.add(mustAction(actions.ChangePasswordLocal(password)))
}

// isPreparatory reports whether the user belongs to a preparatory program,
// whose remote passwords are not derived from the login.
func isPreparatory(user models.UserInfo, fold cases.Caser) bool {
	for _, tag := range user.Tags {
		if strings.Contains(tag, constants.PrepTagMarker) {
			return true
		}
	}
	for _, subject := range user.Table.Subjects {
		name := fold.String(subject.Name)
		for _, marker := range constants.PrepSubjectMarkers {
			if strings.Contains(name, marker) {
				return true
			}
		}
	}
	return false
}

// lastAutumn is September 1 of the previous year.
func (s *Suggester) lastAutumn() time.Time {
	now := s.now()
	return time.Date(now.Year()-1, time.Month(constants.AcademicYearStartMonth), 1, 0, 0, 0, 0, now.Location())
}

// SuggestAll plans users concurrently. Results keep the input order.
func (s *Suggester) SuggestAll(ctx context.Context, users []models.UserInfo) ([]Result, error) {
	results := make([]Result, len(users))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range users {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.Suggest(users[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Result) add(a *actions.Action) {
	for _, existing := range r.Actions {
		if existing.Equal(a) {
			return
		}
	}
	r.Actions = append(r.Actions, a)
}

// mustAction unwraps constructors whose parameter is known to be non-empty.
func mustAction(a *actions.Action, err error) *actions.Action {
	if err != nil {
		panic(err)
	}
	return a
}
