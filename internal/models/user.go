package models

import (
	"strings"
	"time"
)

// Course is one entry of a user's course history in the roster.
type Course struct {
	ID       int        `yaml:"id"`
	Title    string     `yaml:"title"`
	Starts   *time.Time `yaml:"starts,omitempty"`
	Ends     *time.Time `yaml:"ends,omitempty"`
	Teachers []string   `yaml:"teachers,omitempty"`
}

// TableSubject is one subject a user selected in the ledger.
type TableSubject struct {
	Name string
	Date *time.Time
}

// UserTableData is the ledger view of one user, keyed by email.
type UserTableData struct {
	Email    string
	Login    string
	FullName string
	Subjects []TableSubject
}

// UserInfo merges the roster record of a user with its ledger data.
type UserInfo struct {
	ID         int
	Login      string
	Email      string
	FullName   string
	Tags       []string
	Registered *time.Time
	LastLogin  *time.Time
	Courses    []Course
	Source     string
	Table      *UserTableData
}

// HasTag reports whether the roster tag set contains tag exactly.
func (u UserInfo) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LedgerEmail is the email identifying the user's ledger rows.
func (u UserInfo) LedgerEmail() string {
	if u.Table != nil && u.Table.Email != "" {
		return u.Table.Email
	}
	return u.Email
}

// DisplayName prefers the ledger's full name over the roster's.
func (u UserInfo) DisplayName() string {
	if u.Table != nil && strings.TrimSpace(u.Table.FullName) != "" {
		return u.Table.FullName
	}
	return u.FullName
}

// ColumnChange is one ledger cell write, addressed by column header.
type ColumnChange struct {
	Column string
	Value  string
}
