// Package snapshot persists the output of a sync pass as one JSON file per category.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// HeadlinesName is the snapshot name used for the headlines list.
const HeadlinesName = models.HeadlinesSlug

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing the named snapshot, e.g. "Tech" -> <dir>/tech.json.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, fileName(name)+".json")
}

// Exists reports whether the named snapshot has been written.
func (s *Store) Exists(name string) bool {
	if fileName(name) == "" {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads a snapshot. A missing file is an empty snapshot, not an error.
func (s *Store) Load(name string) ([]models.FeedItem, error) {
	if fileName(name) == "" {
		return nil, fmt.Errorf("snapshot name is empty")
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return []models.FeedItem{}, nil
	}
	if err != nil {
		return []models.FeedItem{}, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	var items []models.FeedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return []models.FeedItem{}, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	return items, nil
}

// Save writes the snapshot through a temp file and rename so readers never see a partial file.
func (s *Store) Save(name string, items []models.FeedItem) error {
	if fileName(name) == "" {
		return fmt.Errorf("snapshot name is empty")
	}
	if items == nil {
		items = []models.FeedItem{}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", name, err)
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot %s: %w", name, err)
	}
	return nil
}

func fileName(name string) string {
	return models.CategorySlug(name)
}
