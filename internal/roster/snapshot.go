// Package roster reads and edits an offline snapshot of the remote roster
// kept as a YAML file.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/elexam/internal/errors"
	"github.com/julianstephens/elexam/internal/logger"
	"github.com/julianstephens/elexam/internal/models"
)

// User is one roster record as stored in the snapshot file.
type User struct {
	ID         int             `yaml:"id"`
	Login      string          `yaml:"login"`
	Email      string          `yaml:"email"`
	FullName   string          `yaml:"full_name,omitempty"`
	Tags       []string        `yaml:"tags,omitempty"`
	Registered *time.Time      `yaml:"registered,omitempty"`
	LastLogin  *time.Time      `yaml:"last_login,omitempty"`
	Source     string          `yaml:"source,omitempty"`
	Password   string          `yaml:"password,omitempty"`
	Courses    []models.Course `yaml:"courses,omitempty"`
}

type document struct {
	Users []User `yaml:"users"`
}

// Snapshot is a roster backed by a YAML file. Every mutation rewrites the
// file.
type Snapshot struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// Load reads the snapshot at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	s := &Snapshot{path: path}
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return s, nil
}

// Create writes an empty snapshot at path.
func Create(path string) (*Snapshot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create roster directory: %w", err)
	}
	s := &Snapshot{path: path}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) Path() string {
	return s.path
}

// Users returns every roster user.
func (s *Snapshot) Users() []models.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserInfo, len(s.doc.Users))
	for i, u := range s.doc.Users {
		out[i] = u.info()
	}
	return out
}

// GetUserInfo returns the users registered with email (case-insensitive).
func (s *Snapshot) GetUserInfo(email string) ([]models.UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(email))
	var out []models.UserInfo
	for _, u := range s.doc.Users {
		if fold.String(strings.TrimSpace(u.Email)) == want {
			out = append(out, u.info())
		}
	}
	if len(out) == 0 {
		return nil, errors.ErrUserNotFound.WithCause(fmt.Errorf("no roster user with email %s", email))
	}
	return out, nil
}

// GetUserPassword returns the stored password of a user.
func (s *Snapshot) GetUserPassword(userID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(userID)
	if idx < 0 {
		return "", errors.ErrUserNotFound.WithCause(fmt.Errorf("no roster user %d", userID))
	}
	if s.doc.Users[idx].Password == "" {
		return "", errors.DataInsufficientf("no password known for user %d", userID)
	}
	return s.doc.Users[idx].Password, nil
}

// Delete removes a user from the roster.
func (s *Snapshot) Delete(userID int) error {
	return s.update(userID, func(idx int) bool {
		s.doc.Users = slices.Delete(s.doc.Users, idx, idx+1)
		return true
	})
}

// AddTag adds tag to a user's tag set.
func (s *Snapshot) AddTag(userID int, tag string) error {
	return s.update(userID, func(idx int) bool {
		u := &s.doc.Users[idx]
		if slices.Contains(u.Tags, tag) {
			return false
		}
		u.Tags = append(u.Tags, tag)
		return true
	})
}

// RemoveTag removes tag from a user's tag set.
func (s *Snapshot) RemoveTag(userID int, tag string) error {
	return s.update(userID, func(idx int) bool {
		u := &s.doc.Users[idx]
		before := len(u.Tags)
		u.Tags = slices.DeleteFunc(u.Tags, func(t string) bool { return t == tag })
		return len(u.Tags) != before
	})
}

// SetPassword replaces a user's password.
func (s *Snapshot) SetPassword(userID int, password string) error {
	return s.update(userID, func(idx int) bool {
		s.doc.Users[idx].Password = password
		return true
	})
}

// update applies fn to a user and saves when fn reports a change.
func (s *Snapshot) update(userID int, fn func(idx int) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(userID)
	if idx < 0 {
		return errors.ErrUserNotFound.WithCause(fmt.Errorf("no roster user %d", userID))
	}
	if !fn(idx) {
		return nil
	}
	logger.Debug("Saving roster snapshot", "path", s.path, "user", userID)
	return s.save()
}

func (s *Snapshot) indexOf(userID int) int {
	return slices.IndexFunc(s.doc.Users, func(u User) bool { return u.ID == userID })
}

func (s *Snapshot) save() error {
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	return nil
}

func (u User) info() models.UserInfo {
	return models.UserInfo{
		ID:         u.ID,
		Login:      u.Login,
		Email:      u.Email,
		FullName:   u.FullName,
		Tags:       slices.Clone(u.Tags),
		Registered: u.Registered,
		LastLogin:  u.LastLogin,
		Courses:    slices.Clone(u.Courses),
		Source:     u.Source,
	}
}
