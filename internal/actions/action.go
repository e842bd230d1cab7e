// Package actions defines the closed set of remediation actions a plan is
// made of, with their priority, required capabilities and equality rules.
package actions

import (
	"fmt"

	"github.com/julianstephens/elexam/internal/errors"
)

// Kind identifies a remediation operation.
type Kind string

const (
	KindSkip                 Kind = "skip"
	KindDelete               Kind = "delete"
	KindDeleteFromTable      Kind = "delete_from_table"
	KindAddLabel             Kind = "add_label"
	KindRemoveLabel          Kind = "remove_label"
	KindChangeLogin          Kind = "change_login"
	KindChangePasswordLocal  Kind = "change_password_local"
	KindChangePasswordRemote Kind = "change_password_remote"
	KindMarkRegistered       Kind = "mark_registered"
	KindSilentSkip           Kind = "silent_skip"
	KindSetComment           Kind = "set_comment"
)

// Capability is a collaborator an action needs to run.
type Capability string

const (
	CapabilityRemote Capability = "remote"
	CapabilityLedger Capability = "ledger"
)

// DefaultWeight applies to kinds missing from the weight table
const DefaultWeight = 50

var kinds = []Kind{
	KindSkip, KindDelete, KindDeleteFromTable, KindAddLabel, KindRemoveLabel,
	KindChangeLogin, KindChangePasswordLocal, KindChangePasswordRemote,
	KindMarkRegistered, KindSilentSkip, KindSetComment,
}

var weights = map[Kind]int{
	KindDelete:               100,
	KindSetComment:           90,
	KindMarkRegistered:       85,
	KindSkip:                 85,
	KindChangePasswordLocal:  20,
	KindChangePasswordRemote: 11,
	KindChangeLogin:          10,
}

var requirements = map[Kind][]Capability{
	KindSkip:                 {CapabilityLedger},
	KindDelete:               {CapabilityRemote},
	KindDeleteFromTable:      {CapabilityLedger},
	KindAddLabel:             {CapabilityRemote, CapabilityLedger},
	KindRemoveLabel:          {CapabilityRemote},
	KindChangeLogin:          {CapabilityRemote, CapabilityLedger},
	KindChangePasswordLocal:  {CapabilityLedger},
	KindChangePasswordRemote: {CapabilityRemote},
	KindMarkRegistered:       {CapabilityLedger},
	KindSilentSkip:           {},
	KindSetComment:           {CapabilityLedger},
}

// paramRequired kinds cannot be built without a param.
var paramRequired = map[Kind]bool{
	KindAddLabel:             true,
	KindRemoveLabel:          true,
	KindSetComment:           true,
	KindChangePasswordRemote: true,
	KindChangePasswordLocal:  true,
}

// paramInsensitive kinds compare equal regardless of param.
var paramInsensitive = map[Kind]bool{
	KindSetComment:           true,
	KindChangePasswordRemote: true,
	KindChangePasswordLocal:  true,
}

var descriptions = map[Kind]string{
	KindSkip:                 "Skip and mark in the ledger",
	KindDelete:               "Delete the user",
	KindDeleteFromTable:      "Delete the user from the ledger",
	KindAddLabel:             "Add label <%s>",
	KindRemoveLabel:          "Remove label <%s>",
	KindChangeLogin:          "Write the roster login to the ledger",
	KindChangePasswordLocal:  "Set password <%s> in the ledger",
	KindChangePasswordRemote: "Set password <%s> in the roster",
	KindMarkRegistered:       "Mark as registered in the ledger",
	KindSilentSkip:           "Skip without marking the ledger",
	KindSetComment:           "Set comment <%s>",
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := requirements[k]
	return ok
}

// Weight is the priority of the kind; higher runs first.
func (k Kind) Weight() int {
	if w, ok := weights[k]; ok {
		return w
	}
	return DefaultWeight
}

// Requires returns the capabilities the kind needs.
func (k Kind) Requires() []Capability {
	req := requirements[k]
	out := make([]Capability, len(req))
	copy(out, req)
	return out
}

// ParamRequired reports whether the kind must carry a param.
func (k Kind) ParamRequired() bool {
	return paramRequired[k]
}

// ParamInsensitive reports whether equality ignores the param for this kind.
func (k Kind) ParamInsensitive() bool {
	return paramInsensitive[k]
}

// Action is one remediation step of a user's plan.
type Action struct {
	kind      Kind
	param     string
	completed bool
}

// New builds an action, failing with ErrConstruction for unknown kinds or a missing required param.
func New(kind Kind, param string) (*Action, error) {
	if !kind.Valid() {
		return nil, errors.Constructionf("unknown action kind %q", kind)
	}
	if param == "" && kind.ParamRequired() {
		return nil, errors.Constructionf("param should be passed when action is %s", kind)
	}
	return &Action{kind: kind, param: param}, nil
}

// MustNew is New for params known to be valid; it panics on construction errors.
func MustNew(kind Kind, param string) *Action {
	a, err := New(kind, param)
	if err != nil {
		panic(err)
	}
	return a
}

// Skip builds a skip action; the user's ledger rows are marked skipped.
func Skip() *Action { return &Action{kind: KindSkip} }

// Delete builds a delete action, which removes the roster account.
func Delete() *Action { return &Action{kind: KindDelete} }

// DeleteFromTable builds an action that clears the user's ledger rows.
func DeleteFromTable() *Action { return &Action{kind: KindDeleteFromTable} }

// ChangeLogin builds an action writing the roster login to the ledger.
func ChangeLogin() *Action { return &Action{kind: KindChangeLogin} }

// MarkRegistered builds an action marking the user's ledger rows registered.
func MarkRegistered() *Action { return &Action{kind: KindMarkRegistered} }

// SilentSkip builds a skip action that changes nothing.
func SilentSkip() *Action { return &Action{kind: KindSilentSkip} }

// AddLabel builds an add_label action for the given label text.
func AddLabel(label string) (*Action, error) {
	return New(KindAddLabel, label)
}

// RemoveLabel builds a remove_label action for the given label text.
func RemoveLabel(label string) (*Action, error) {
	return New(KindRemoveLabel, label)
}

// SetComment builds a set_comment action with the given comment text.
func SetComment(text string) (*Action, error) {
	return New(KindSetComment, text)
}

// ChangePasswordLocal builds an action writing password to the ledger.
func ChangePasswordLocal(password string) (*Action, error) {
	return New(KindChangePasswordLocal, password)
}

// ChangePasswordRemote builds an action setting password in the roster.
func ChangePasswordRemote(password string) (*Action, error) {
	return New(KindChangePasswordRemote, password)
}

func (a *Action) Type() Kind      { return a.kind }
func (a *Action) Param() string   { return a.param }
func (a *Action) Weight() int     { return a.kind.Weight() }
func (a *Action) Completed() bool { return a.completed }

func (a *Action) Requires() []Capability {
	return a.kind.Requires()
}

// MarkCompleted flags the action as executed. It reports false if it already was.
func (a *Action) MarkCompleted() bool {
	if a.completed {
		return false
	}
	a.completed = true
	return true
}

// Is compares against a bare kind, ignoring the param.
func (a *Action) Is(kind Kind) bool {
	return a != nil && a.kind == kind
}

// Equal compares kinds, and params unless the kind is param-insensitive.
func (a *Action) Equal(other *Action) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.kind != other.kind {
		return false
	}
	if a.kind.ParamInsensitive() {
		return true
	}
	return a.param == other.param
}

// Allowed reports whether every required capability is available.
func (a *Action) Allowed(available Capabilities) bool {
	for _, c := range requirements[a.kind] {
		if !available.Has(c) {
			return false
		}
	}
	return true
}

// Describe returns a human-readable description.
func (a *Action) Describe() string {
	d := descriptions[a.kind]
	if a.kind.ParamRequired() {
		return fmt.Sprintf(d, a.param)
	}
	return d
}

func (a *Action) String() string {
	s := string(a.kind)
	if a.param != "" {
		s += fmt.Sprintf(":%q", a.param)
	}
	if a.completed {
		s += " COMPLETED"
	}
	return s
}

// Capabilities is a set of available collaborators.
type Capabilities map[Capability]bool

// NewCapabilities builds a set from the given capabilities.
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// AllCapabilities is the set with every collaborator available.
func AllCapabilities() Capabilities {
	return NewCapabilities(CapabilityRemote, CapabilityLedger)
}

func (c Capabilities) Has(capability Capability) bool {
	return c[capability]
}
