package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/models"
)

type fakeRemote struct {
	calls   []string
	failOn  map[string]error
	panicOn string
}

func (f *fakeRemote) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.panicOn {
		panic("remote exploded")
	}
	return f.failOn[call]
}

func (f *fakeRemote) Delete(userID int) error {
	return f.record(fmt.Sprintf("delete %d", userID))
}

func (f *fakeRemote) AddTag(userID int, tag string) error {
	return f.record(fmt.Sprintf("add_tag %d %s", userID, tag))
}

func (f *fakeRemote) RemoveTag(userID int, tag string) error {
	return f.record(fmt.Sprintf("remove_tag %d %s", userID, tag))
}

func (f *fakeRemote) SetPassword(userID int, password string) error {
	return f.record(fmt.Sprintf("set_password %d %s", userID, password))
}

type fakeLedger struct {
	mu         sync.Mutex
	calls      []string
	failOn     map[string]error
	persistErr error
	persisted  int
}

func (f *fakeLedger) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeLedger) MarkSkipped(email string) error    { return f.record("skipped " + email) }
func (f *fakeLedger) MarkRegistered(email string) error { return f.record("registered " + email) }
func (f *fakeLedger) DeleteUser(email string) error     { return f.record("deleted " + email) }

func (f *fakeLedger) SetComment(email, text string) error {
	return f.record("comment " + email + " " + text)
}

func (f *fakeLedger) ChangeColumns(email string, changes []models.ColumnChange) error {
	call := "columns " + email
	for _, c := range changes {
		call += " " + c.Column + "=" + c.Value
	}
	return f.record(call)
}

func (f *fakeLedger) Persist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted++
	return f.persistErr
}

func testUser() models.UserInfo {
	return models.UserInfo{
		ID:    7,
		Login: "25-01645",
		Email: "student@example.com",
		Table: &models.UserTableData{Email: "Student@Example.com", Login: "25-99999"},
	}
}

func must(a *actions.Action, err error) *actions.Action {
	if err != nil {
		panic(err)
	}
	return a
}

func TestPerformActionsDispatch(t *testing.T) {
	remote := &fakeRemote{}
	ledger := &fakeLedger{}
	exec := New(remote, ledger)

	acts := []*actions.Action{
		must(actions.SetComment("check docs")),
		actions.MarkRegistered(),
		must(actions.AddLabel("Хим20253")),
		must(actions.ChangePasswordLocal("1844985")),
		must(actions.ChangePasswordRemote("1844985")),
		actions.ChangeLogin(),
		actions.SilentSkip(),
	}

	report := exec.PerformActions(context.Background(), testUser(), acts)
	require.True(t, report.OK(), "failures: %v", report.Err())
	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.Len(t, report.Completed, len(acts))
	for _, a := range acts {
		assert.True(t, a.Completed(), "%s should be completed", a.Type())
	}

	assert.Equal(t, []string{
		"add_tag 7 Хим20253",
		"set_password 7 1844985",
	}, remote.calls)
	assert.Equal(t, []string{
		"comment Student@Example.com check docs",
		"registered Student@Example.com",
		"columns Student@Example.com пароль=1844985",
		"columns Student@Example.com логин=25-01645",
		"skipped Student@Example.com",
	}, ledger.calls)
	assert.Equal(t, 4, ledger.persisted)
}

func TestPerformActionsDeleteIsExclusive(t *testing.T) {
	remote := &fakeRemote{}
	ledger := &fakeLedger{}
	exec := New(remote, ledger)

	acts := []*actions.Action{actions.Delete(), actions.MarkRegistered(), must(actions.AddLabel("Физ20251"))}
	report := exec.PerformActions(context.Background(), testUser(), acts)

	require.True(t, report.OK())
	assert.Equal(t, []string{"delete 7"}, remote.calls)
	assert.Empty(t, ledger.calls)
	assert.True(t, acts[0].Completed())
	assert.False(t, acts[1].Completed())
	assert.False(t, acts[2].Completed())
}

func TestPerformActionsIsolatesFailures(t *testing.T) {
	remote := &fakeRemote{failOn: map[string]error{"add_tag 7 Хим20253": errors.ErrRequestFailed}}
	ledger := &fakeLedger{}
	exec := New(remote, ledger)

	failing := must(actions.AddLabel("Хим20253"))
	next := must(actions.AddLabel("Физ20251"))
	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{failing, next})

	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, 7, failure.UserID)
	assert.Equal(t, "add_label", failure.Action)
	assert.ErrorIs(t, failure, errors.ErrRequestFailed)
	assert.ErrorIs(t, report.Err(), errors.ErrRequestFailed)

	assert.False(t, failing.Completed())
	assert.True(t, next.Completed())
	assert.Len(t, remote.calls, 2)
}

func TestPerformActionsRecoversPanics(t *testing.T) {
	remote := &fakeRemote{panicOn: "remove_tag 7 old"}
	exec := New(remote, &fakeLedger{})

	boom := must(actions.RemoveLabel("old"))
	after := must(actions.AddLabel("new"))
	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{boom, after})

	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error(), "remote exploded")
	assert.True(t, after.Completed())
}

func TestPerformActionsPersistFailure(t *testing.T) {
	ledger := &fakeLedger{persistErr: fmt.Errorf("disk full")}
	exec := New(&fakeRemote{}, ledger)

	a := actions.MarkRegistered()
	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{a})

	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error(), "disk full")
	assert.False(t, a.Completed())
}

func TestPerformActionsChangeLoginSavesPartialWrite(t *testing.T) {
	ledger := &fakeLedger{failOn: map[string]error{"skipped Student@Example.com": fmt.Errorf("sheet protected")}}
	exec := New(&fakeRemote{}, ledger)

	a := actions.ChangeLogin()
	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{a})

	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error(), "sheet protected")
	assert.False(t, a.Completed())
	assert.Equal(t, []string{"columns Student@Example.com логин=25-01645", "skipped Student@Example.com"}, ledger.calls)
	assert.Equal(t, 1, ledger.persisted, "the written login must be saved")
}

func TestPerformActionsChangeLoginColumnFailure(t *testing.T) {
	ledger := &fakeLedger{failOn: map[string]error{"columns Student@Example.com логин=25-01645": fmt.Errorf("no such column")}}
	exec := New(&fakeRemote{}, ledger)

	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{actions.ChangeLogin()})

	require.Len(t, report.Failures, 1)
	assert.Zero(t, ledger.persisted, "nothing was written, nothing to save")
}

func TestPerformActionsMissingCollaborator(t *testing.T) {
	ledger := &fakeLedger{}
	exec := New(nil, ledger)

	remoteOnly := must(actions.ChangePasswordRemote("1844985"))
	ledgerOnly := actions.Skip()
	report := exec.PerformActions(context.Background(), testUser(), []*actions.Action{ledgerOnly, remoteOnly})

	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], errors.ErrCapabilityUnavailable)
	assert.True(t, ledgerOnly.Completed())
	assert.False(t, remoteOnly.Completed())
}

func TestPerformActionsSkipsCompleted(t *testing.T) {
	remote := &fakeRemote{}
	exec := New(remote, &fakeLedger{})

	a := must(actions.AddLabel("Хим20253"))
	first := exec.PerformActions(context.Background(), testUser(), []*actions.Action{a})
	second := exec.PerformActions(context.Background(), testUser(), []*actions.Action{a})

	assert.Len(t, first.Completed, 1)
	assert.Empty(t, second.Completed)
	assert.Len(t, remote.calls, 1)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPerformActionsCancelled(t *testing.T) {
	remote := &fakeRemote{}
	exec := New(remote, &fakeLedger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := must(actions.AddLabel("Хим20253"))
	report := exec.PerformActions(ctx, testUser(), []*actions.Action{a})

	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], context.Canceled)
	assert.Empty(t, remote.calls)
	assert.False(t, a.Completed())
}

func TestPerformActionsFallsBackToRosterEmail(t *testing.T) {
	ledger := &fakeLedger{}
	exec := New(nil, ledger)

	user := testUser()
	user.Table = nil
	report := exec.PerformActions(context.Background(), user, []*actions.Action{actions.MarkRegistered()})

	require.True(t, report.OK())
	assert.Equal(t, []string{"registered student@example.com"}, ledger.calls)
}

func TestCapabilities(t *testing.T) {
	assert.True(t, New(&fakeRemote{}, nil).Capabilities().Has(actions.CapabilityRemote))
	assert.False(t, New(&fakeRemote{}, nil).Capabilities().Has(actions.CapabilityLedger))
	assert.True(t, New(nil, &fakeLedger{}).Capabilities().Has(actions.CapabilityLedger))
}
