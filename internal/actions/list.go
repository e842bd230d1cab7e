package actions

import (
	"sort"

	"github.com/julianstephens/elexam/internal/errors"
)

// List is an editable plan for one user. It never holds two equal actions
// and stays sorted by weight, highest first.
type List struct {
	available Capabilities
	items     []*Action
}

// NewList returns an empty list accepting actions the given capabilities allow.
func NewList(available Capabilities) *List {
	return &List{available: available}
}

// Add appends a unless an equal action is already present.
//
// Delete is exclusive and clears every other pending action. Skip and
// silent skip replace each other.
func (l *List) Add(a *Action) error {
	if a == nil {
		return errors.Constructionf("cannot add a nil action")
	}
	if !a.Allowed(l.available) {
		return errors.CapabilityUnavailablef("action %s requires %v", a.kind, a.kind.Requires())
	}
	if a.kind == KindDelete {
		if i := l.IndexOf(KindDelete); i >= 0 {
			a = l.items[i]
		}
		l.items = []*Action{a}
		return nil
	}
	if l.Contains(a) {
		return nil
	}

	switch a.kind {
	case KindSkip:
		l.removeKind(KindSilentSkip)
	case KindSilentSkip:
		l.removeKind(KindSkip)
	}

	l.items = append(l.items, a)
	SortByWeight(l.items)
	return nil
}

// Replace removes any action equal to a, then adds a. It is how a new
// password replaces a pending one of the same kind.
func (l *List) Replace(a *Action) error {
	if a == nil {
		return errors.Constructionf("cannot add a nil action")
	}
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].Equal(a) {
			l.items = append(l.items[:i], l.items[i+1:]...)
		}
	}
	return l.Add(a)
}

// AddAll adds every action, collecting the ones that could not be added.
func (l *List) AddAll(acts []*Action) []error {
	var errs []error
	for _, a := range acts {
		if err := l.Add(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Remove drops the action at index (0-based).
func (l *List) Remove(index int) error {
	if index < 0 || index >= len(l.items) {
		return errors.NotFoundf("no action at position %d", index+1)
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

// Clear drops every action.
func (l *List) Clear() {
	l.items = nil
}

func (l *List) Len() int {
	return len(l.items)
}

// Actions returns the current actions in order.
func (l *List) Actions() []*Action {
	out := make([]*Action, len(l.items))
	copy(out, l.items)
	return out
}

// Contains reports whether an equal action is present.
func (l *List) Contains(a *Action) bool {
	for _, item := range l.items {
		if item.Equal(a) {
			return true
		}
	}
	return false
}

// IndexOf returns the position of the first action of kind, or -1.
func (l *List) IndexOf(kind Kind) int {
	for i, item := range l.items {
		if item.Is(kind) {
			return i
		}
	}
	return -1
}

// Finalize returns the confirmed plan. A plan with delete contains only delete.
func (l *List) Finalize() ([]*Action, error) {
	if len(l.items) == 0 {
		return nil, errors.ErrEmptyPlan
	}
	if i := l.IndexOf(KindDelete); i >= 0 {
		l.items = []*Action{l.items[i]}
	}
	SortByWeight(l.items)
	return l.Actions(), nil
}

func (l *List) removeKind(kind Kind) {
	kept := l.items[:0]
	for _, item := range l.items {
		if !item.Is(kind) {
			kept = append(kept, item)
		}
	}
	l.items = kept
}

// SortByWeight orders actions by weight, highest first, keeping the order of ties.
func SortByWeight(acts []*Action) {
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].Weight() > acts[j].Weight()
	})
}

// ExclusiveDelete reduces acts to its delete actions when any is present.
func ExclusiveDelete(acts []*Action) []*Action {
	var deletes []*Action
	for _, a := range acts {
		if a.Is(KindDelete) {
			deletes = append(deletes, a)
		}
	}
	if len(deletes) > 0 {
		return deletes
	}
	return acts
}
