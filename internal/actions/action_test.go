package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/elexam/internal/errors"
)

func TestTablesCoverEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		_, ok := requirements[k]
		assert.True(t, ok, "kind %s has no capability entry", k)
		_, ok = descriptions[k]
		assert.True(t, ok, "kind %s has no description", k)
		assert.True(t, k.Valid())
	}
	for k := range weights {
		assert.True(t, k.Valid(), "weight table has unknown kind %s", k)
	}
	assert.Len(t, requirements, len(Kinds()))
	assert.False(t, Kind("rename").Valid())
}

func TestWeights(t *testing.T) {
	want := map[Kind]int{
		KindDelete:               100,
		KindSetComment:           90,
		KindMarkRegistered:       85,
		KindSkip:                 85,
		KindChangePasswordLocal:  20,
		KindChangePasswordRemote: 11,
		KindChangeLogin:          10,
		KindAddLabel:             50,
		KindRemoveLabel:          50,
		KindDeleteFromTable:      50,
		KindSilentSkip:           50,
	}
	for kind, w := range want {
		assert.Equal(t, w, kind.Weight(), "weight of %s", kind)
	}
}

func TestRequiredCapabilities(t *testing.T) {
	assert.Equal(t, []Capability{CapabilityRemote}, KindDelete.Requires())
	assert.ElementsMatch(t, []Capability{CapabilityRemote, CapabilityLedger}, KindAddLabel.Requires())
	assert.Empty(t, KindSilentSkip.Requires())

	remoteOnly := NewCapabilities(CapabilityRemote)
	assert.True(t, Delete().Allowed(remoteOnly))
	assert.False(t, ChangeLogin().Allowed(remoteOnly))
	assert.True(t, SilentSkip().Allowed(NewCapabilities()))
}

func TestNewRequiresParam(t *testing.T) {
	for _, kind := range []Kind{KindAddLabel, KindRemoveLabel, KindSetComment, KindChangePasswordRemote, KindChangePasswordLocal} {
		_, err := New(kind, "")
		require.Error(t, err, "kind %s", kind)
		assert.True(t, errors.Is(err, errors.ErrConstruction))

		a, err := New(kind, "value")
		require.NoError(t, err)
		assert.Equal(t, "value", a.Param())
	}

	_, err := New(Kind("nope"), "x")
	assert.True(t, errors.Is(err, errors.ErrConstruction))

	a, err := New(KindDelete, "")
	require.NoError(t, err)
	assert.True(t, a.Is(KindDelete))
}

func TestConstructors(t *testing.T) {
	bare := map[Kind]*Action{
		KindSkip:            Skip(),
		KindDelete:          Delete(),
		KindDeleteFromTable: DeleteFromTable(),
		KindChangeLogin:     ChangeLogin(),
		KindMarkRegistered:  MarkRegistered(),
		KindSilentSkip:      SilentSkip(),
	}
	for kind, a := range bare {
		assert.Equal(t, kind, a.Type())
		assert.Empty(t, a.Param())
	}

	withParam := map[Kind]func(string) (*Action, error){
		KindAddLabel:             AddLabel,
		KindRemoveLabel:          RemoveLabel,
		KindSetComment:           SetComment,
		KindChangePasswordLocal:  ChangePasswordLocal,
		KindChangePasswordRemote: ChangePasswordRemote,
	}
	for kind, build := range withParam {
		a, err := build("Хим20251")
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, a.Type())
		assert.Equal(t, "Хим20251", a.Param())

		_, err = build("")
		assert.True(t, errors.Is(err, errors.ErrConstruction), "kind %s", kind)
	}
}

func TestMustNewPanicsOnMissingParam(t *testing.T) {
	assert.Panics(t, func() { MustNew(KindAddLabel, "") })
	assert.NotPanics(t, func() { MustNew(KindAddLabel, "Хим20253") })
}

func TestEqualIgnoresParamOnlyForInsensitiveKinds(t *testing.T) {
	for _, kind := range Kinds() {
		a := MustNew(kind, "one")
		b := MustNew(kind, "two")
		same := MustNew(kind, "one")

		assert.True(t, a.Equal(a), "%s reflexive", kind)
		assert.True(t, a.Equal(same), "%s same param", kind)
		assert.Equal(t, a.Equal(b), b.Equal(a), "%s symmetric", kind)

		switch kind {
		case KindSetComment, KindChangePasswordRemote, KindChangePasswordLocal:
			assert.True(t, a.Equal(b), "%s should ignore param", kind)
		default:
			assert.False(t, a.Equal(b), "%s should compare param", kind)
		}
	}

	assert.False(t, Skip().Equal(SilentSkip()))
	assert.False(t, Skip().Equal(nil))
}

func TestIsComparesKindOnly(t *testing.T) {
	a := MustNew(KindAddLabel, "Хим20253")
	assert.True(t, a.Is(KindAddLabel))
	assert.False(t, a.Is(KindRemoveLabel))
}

func TestMarkCompletedOnce(t *testing.T) {
	a := Delete()
	assert.False(t, a.Completed())
	assert.True(t, a.MarkCompleted())
	assert.False(t, a.MarkCompleted())
	assert.True(t, a.Completed())
	assert.Contains(t, a.String(), "COMPLETED")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Add label <Хим20253>", MustNew(KindAddLabel, "Хим20253").Describe())
	assert.Equal(t, "Delete the user", Delete().Describe())
}
