package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// Entry - одна проверка цены, удачная или нет.
type Entry struct {
	Timestamp time.Time           `json:"timestamp"`
	Route     string              `json:"route"`
	RouteName string              `json:"route_name"`
	Date      string              `json:"date"`
	Price     decimal.NullDecimal `json:"price"`
	Currency  string              `json:"currency,omitempty"`
	Details   []string            `json:"details"`
}

// HasPrice сообщает, удалось ли получить цену.
func (e Entry) HasPrice() bool {
	return e.Price.Valid
}

// Store хранит историю JSON-массивом в одном файле.
// Писатель должен быть один.
type Store struct {
	path     string
	readOnly bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewReadOnlyStore читает тот же файл, но Save его не трогает.
func NewReadOnlyStore(path string) *Store {
	return &Store{path: path, readOnly: true}
}

func (s *Store) ReadOnly() bool {
	return s.readOnly
}

func (s *Store) Path() string {
	return s.path
}

// Load читает историю. Нет файла - пустая история.
func (s *Store) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return entries, nil
}

// Save перезаписывает файл истории с отступами.
func (s *Store) Save(entries []Entry) error {
	if s.readOnly {
		return nil
	}
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

// Append дописывает новые записи после старых и оставляет последние limit.
// limit <= 0 - без ограничения.
func Append(old, fresh []Entry, limit int) []Entry {
	merged := make([]Entry, 0, len(old)+len(fresh))
	merged = append(merged, old...)
	merged = append(merged, fresh...)

	if limit > 0 && len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return merged
}
