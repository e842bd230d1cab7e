package suggest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/labels"
	"github.com/julianstephens/elexam/internal/models"
)

var now = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type fakePasswords map[int]string

func (f fakePasswords) GetUserPassword(userID int) (string, error) {
	p, ok := f[userID]
	if !ok {
		return "", errors.ErrUserNotFound
	}
	return p, nil
}

func newEngine() *labels.Engine {
	ref := func(m time.Month, d int) time.Time { return time.Date(2000, m, d, 0, 0, 0, 0, time.UTC) }
	store := labels.NewMemoryStore(
		models.Exam{Subject: "химия", Tag: "Хим", Dates: []time.Time{ref(6, 18), ref(7, 18), ref(8, 18)}},
		models.Exam{Subject: "физика", Tag: "Физ", Dates: []time.Time{ref(6, 5), ref(7, 5)}},
	)
	return labels.NewEngine(store, labels.WithClock(clock))
}

func ptr(t time.Time) *time.Time { return &t }

func baseUser() models.UserInfo {
	return models.UserInfo{
		ID:     42,
		Login:  "25-01645",
		Email:  "student@example.com",
		Source: "ELS",
		Table: &models.UserTableData{
			Email: "Student@Example.com",
			Login: "25-01645",
		},
	}
}

func kinds(acts []*actions.Action) []actions.Kind {
	out := make([]actions.Kind, len(acts))
	for i, a := range acts {
		out[i] = a.Type()
	}
	return out
}

func TestSuggestDeletesStaleRegistration(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Registered = ptr(now.AddDate(-2, 0, 0))
	user.Table.Login = "25-99999"

	res := s.Suggest(user)
	require.Len(t, res.Actions, 1)
	assert.True(t, res.Actions[0].Is(actions.KindDelete))
}

func TestSuggestKeepsRegistrationAfterLastAutumn(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Registered = ptr(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))

	res := s.Suggest(user)
	assert.Empty(t, res.Actions)
}

func TestSuggestSilentSkipOnEmailMismatch(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Table.Email = "someone.else@example.com"
	user.Table.Login = "25-99999"

	res := s.Suggest(user)
	assert.Equal(t, []actions.Kind{actions.KindSilentSkip}, kinds(res.Actions))
}

func TestSuggestDerivedPassword(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Table.Login = "25-99999"

	res := s.Suggest(user)
	require.Equal(t, []actions.Kind{
		actions.KindChangePasswordLocal,
		actions.KindChangePasswordRemote,
		actions.KindChangeLogin,
	}, kinds(res.Actions))
	assert.Equal(t, "1844985", res.Actions[0].Param())
	assert.Equal(t, "1844985", res.Actions[1].Param())
}

func TestSuggestPasswordFromLookup(t *testing.T) {
	s := New(newEngine(), WithClock(clock), WithPasswordLookup(fakePasswords{42: "s3cret"}))

	user := baseUser()
	user.Table.Login = "25-09999"

	res := s.Suggest(user)
	require.Equal(t, []actions.Kind{actions.KindChangePasswordLocal, actions.KindChangeLogin}, kinds(res.Actions))
	assert.Equal(t, "s3cret", res.Actions[0].Param())
}

func TestSuggestLookupMissFallsBackToDerivation(t *testing.T) {
	s := New(newEngine(), WithClock(clock), WithPasswordLookup(fakePasswords{}))

	user := baseUser()
	user.Table.Login = "25-09999"

	res := s.Suggest(user)
	require.Len(t, res.Actions, 3)
	assert.Equal(t, "494985", res.Actions[0].Param())
}

func TestSuggestPreparatoryUsers(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		subjects []models.TableSubject
	}{
		{name: "spo tag", tags: []string{"group-spo-2025"}},
		{name: "exam prep subject", subjects: []models.TableSubject{{Name: "Подготовка к ЕГЭ по химии"}}},
		{name: "college base subject", subjects: []models.TableSubject{{Name: "Математика НА БАЗЕ СПО"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newEngine(), WithClock(clock))

			user := baseUser()
			user.Tags = tt.tags
			user.Table.Login = "25-99999"
			user.Table.Subjects = tt.subjects

			res := s.Suggest(user)
			idx := -1
			for i, a := range res.Actions {
				assert.False(t, a.Is(actions.KindChangePasswordRemote))
				if a.Is(actions.KindChangePasswordLocal) {
					idx = i
				}
			}
			require.GreaterOrEqual(t, idx, 0)
			assert.Equal(t, "<Неизвестно>", res.Actions[idx].Param())
		})
	}
}

func TestSuggestDirectoryUsersKeepPassword(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Source = "AD"
	user.Table.Login = "25-99999"

	res := s.Suggest(user)
	assert.Equal(t, []actions.Kind{actions.KindChangeLogin}, kinds(res.Actions))
}

func TestSuggestLabels(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Tags = []string{"Физ20251"}
	user.Table.Subjects = []models.TableSubject{
		{Name: "Химия", Date: ptr(time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC))},
		{Name: "физика"},
		{Name: "химия", Date: ptr(time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC))},
		{Name: "астрономия"},
	}

	res := s.Suggest(user)
	require.Len(t, res.Actions, 1)
	assert.True(t, res.Actions[0].Is(actions.KindAddLabel))
	assert.Equal(t, "Хим20253", res.Actions[0].Param())

	require.Len(t, res.Issues, 1)
	assert.ErrorIs(t, res.Issues[0], errors.ErrNoSuitableLabel)
}

func TestSuggestOrdersByWeight(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	user := baseUser()
	user.Table.Login = "25-99999"
	user.Table.Subjects = []models.TableSubject{{Name: "физика"}}

	res := s.Suggest(user)
	for i := 1; i < len(res.Actions); i++ {
		assert.GreaterOrEqual(t, res.Actions[i-1].Weight(), res.Actions[i].Weight())
	}
	assert.True(t, res.Actions[len(res.Actions)-1].Is(actions.KindChangeLogin))
}

func TestSuggestAllKeepsOrder(t *testing.T) {
	s := New(newEngine(), WithClock(clock), WithWorkers(3))

	users := make([]models.UserInfo, 20)
	for i := range users {
		u := baseUser()
		u.ID = i
		u.Email = fmt.Sprintf("user%d@example.com", i)
		u.Table.Email = u.Email
		if i%2 == 0 {
			u.Table.Login = "25-99999"
		}
		users[i] = u
	}

	results, err := s.SuggestAll(context.Background(), users)
	require.NoError(t, err)
	require.Len(t, results, len(users))
	for i, res := range results {
		assert.Equal(t, users[i].Email, res.User.Email)
		if i%2 == 0 {
			assert.Len(t, res.Actions, 3)
		} else {
			assert.Empty(t, res.Actions)
		}
	}
}

func TestSuggestAllCancelled(t *testing.T) {
	s := New(newEngine(), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SuggestAll(ctx, []models.UserInfo{baseUser()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDerivePassword(t *testing.T) {
	tests := []struct {
		login string
		want  string
	}{
		{login: "25-99999", want: "1844985"},
		{login: "25-09999", want: "494985"},
		{login: "25-01645", want: "369675"},
		{login: "1645", want: "369675"},
	}
	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePassword(tt.login))
		})
	}
}

func TestDerivePasswordRandomFallback(t *testing.T) {
	p := DerivePassword("ivanov")
	assert.True(t, strings.HasPrefix(p, "EL_"))
	assert.Len(t, p, len("EL_")+6)
	for _, r := range p[3:] {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}
