package labels

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/models"
	"github.com/julianstephens/elexam/internal/storage"
)

// Store loads and saves the exam catalog.
type Store interface {
	LoadExams() ([]models.Exam, error)
	SaveExams([]models.Exam) error
}

// SettingsStore keeps the catalog as one JSON value in a settings provider.
type SettingsStore struct {
	provider storage.Provider
	key      string
}

func NewSettingsStore(provider storage.Provider) *SettingsStore {
	return &SettingsStore{
		provider: provider,
		key:      constants.SettingExamCatalog,
	}
}

func (s *SettingsStore) LoadExams() ([]models.Exam, error) {
	raw, ok, err := s.provider.GetSetting(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam catalog: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var exams []models.Exam
	if err := json.Unmarshal([]byte(raw), &exams); err != nil {
		return nil, fmt.Errorf("failed to parse exam catalog: %w", err)
	}
	return exams, nil
}

func (s *SettingsStore) SaveExams(exams []models.Exam) error {
	if exams == nil {
		exams = []models.Exam{}
	}
	data, err := json.Marshal(exams)
	if err != nil {
		return fmt.Errorf("failed to serialize exam catalog: %w", err)
	}
	if err := s.provider.SetSetting(s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save exam catalog: %w", err)
	}
	return nil
}

// MemoryStore is an in-process catalog store.
type MemoryStore struct {
	mu    sync.Mutex
	exams []models.Exam
}

func NewMemoryStore(exams ...models.Exam) *MemoryStore {
	return &MemoryStore{exams: cloneExams(exams)}
}

func (s *MemoryStore) LoadExams() ([]models.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneExams(s.exams), nil
}

func (s *MemoryStore) SaveExams(exams []models.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams = cloneExams(exams)
	return nil
}

func cloneExams(exams []models.Exam) []models.Exam {
	if exams == nil {
		return nil
	}
	out := make([]models.Exam, len(exams))
	for i, e := range exams {
		out[i] = models.Exam{
			Subject: e.Subject,
			Tag:     e.Tag,
			Dates:   append([]time.Time(nil), e.Dates...),
		}
	}
	return out
}
