// Package executor applies a confirmed plan to the roster and the ledger.
//
// Actions run one by one in plan order. A failing action is reported and
// the rest still run; nothing is rolled back or retried.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
)

// RemoteMutator changes users in the remote roster.
type RemoteMutator interface {
	Delete(userID int) error
	AddTag(userID int, tag string) error
	RemoveTag(userID int, tag string) error
	SetPassword(userID int, password string) error
}

// LedgerMutator changes ledger rows addressed by email. Changes are only
// durable after Persist.
type LedgerMutator interface {
	MarkSkipped(email string) error
	MarkRegistered(email string) error
	DeleteUser(email string) error
	SetComment(email, text string) error
	ChangeColumns(email string, changes []models.ColumnChange) error
	Persist() error
}

// Report is the outcome of one PerformActions call.
type Report struct {
	RunID     uuid.UUID
	User      models.UserInfo
	Completed []*actions.Action
	Failures  []*errors.ExecutionFailure
}

// OK reports whether every executed action succeeded.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the failures, or returns nil.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Executor is bound to one ledger handle and runs one plan at a time.
type Executor struct {
	mu     sync.Mutex
	remote RemoteMutator
	ledger LedgerMutator
	newID  func() uuid.UUID
}

// New creates an executor. Either collaborator may be nil; actions that
// need a missing one fail.
func New(remote RemoteMutator, ledger LedgerMutator) *Executor {
	return &Executor{
		remote: remote,
		ledger: ledger,
		newID:  uuid.New,
	}
}

// Capabilities lists what the configured collaborators can do.
func (e *Executor) Capabilities() actions.Capabilities {
	var caps []actions.Capability
	if e.remote != nil {
		caps = append(caps, actions.CapabilityRemote)
	}
	if e.ledger != nil {
		caps = append(caps, actions.CapabilityLedger)
	}
	return actions.NewCapabilities(caps...)
}

// PerformActions runs acts for user. Completed actions are skipped; when a
// delete is present only deletes run. Successful actions are marked
// completed.
func (e *Executor) PerformActions(ctx context.Context, user models.UserInfo, acts []*actions.Action) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := Report{RunID: e.newID(), User: user}
	run := report.RunID.String()

	for _, a := range actions.ExclusiveDelete(acts) {
		if a == nil || a.Completed() {
			continue
		}

		err := ctx.Err()
		if err == nil {
			err = e.perform(user, a)
		}
		if err != nil {
			failure := &errors.ExecutionFailure{
				UserID: user.ID,
				Email:  user.Email,
				Action: string(a.Type()),
				Err:    err,
			}
			logger.Error("Action failed", "run", run, "user", user.Email, "action", a.Type(), "error", err)
			report.Failures = append(report.Failures, failure)
			continue
		}

		a.MarkCompleted()
		report.Completed = append(report.Completed, a)
		logger.Info("Action completed", "run", run, "user", user.Email, "action", a.Type())
	}

	return report
}

func (e *Executor) perform(user models.UserInfo, a *actions.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	for _, c := range a.Requires() {
		if !e.Capabilities().Has(c) {
			return errors.CapabilityUnavailablef("no %s collaborator configured", c)
		}
	}

	email := user.LedgerEmail()
	touchesLedger := false

	switch a.Type() {
	case actions.KindSkip:
		touchesLedger = true
		err = e.ledger.MarkSkipped(email)
	case actions.KindDelete:
		err = e.remote.Delete(user.ID)
	case actions.KindDeleteFromTable:
		touchesLedger = true
		err = e.ledger.DeleteUser(email)
	case actions.KindAddLabel:
		err = e.remote.AddTag(user.ID, a.Param())
	case actions.KindRemoveLabel:
		err = e.remote.RemoveTag(user.ID, a.Param())
	case actions.KindChangeLogin:
		touchesLedger = true
		err = e.ledger.ChangeColumns(email, []models.ColumnChange{{Column: constants.ColumnLogin, Value: user.Login}})
		if err == nil {
			if err = e.ledger.MarkSkipped(email); err != nil {
				// the login is already written; save it rather than leave it pending
				if perr := e.ledger.Persist(); perr != nil {
					err = errors.Join(err, fmt.Errorf("failed to save ledger: %w", perr))
				}
			}
		}
	case actions.KindChangePasswordRemote:
		err = e.remote.SetPassword(user.ID, a.Param())
	case actions.KindChangePasswordLocal:
		touchesLedger = true
		err = e.ledger.ChangeColumns(email, []models.ColumnChange{{Column: constants.ColumnPassword, Value: a.Param()}})
	case actions.KindMarkRegistered:
		touchesLedger = true
		err = e.ledger.MarkRegistered(email)
	case actions.KindSetComment:
		touchesLedger = true
		err = e.ledger.SetComment(email, a.Param())
	case actions.KindSilentSkip:
		// nothing to do
	default:
		return errors.Constructionf("unknown action kind %q", a.Type())
	}
	if err != nil {
		return err
	}

	if touchesLedger {
		if err := e.ledger.Persist(); err != nil {
			return fmt.Errorf("failed to save ledger: %w", err)
		}
	}
	return nil
}
