package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

const (
	colBookings = "bookings"
	colPayouts  = "payouts"
	colListings = "listings"
	colUsers    = "users"
)

// FileStore keeps each collection in <dir>/<name>.json shaped as {"<name>": [...]}.
// All access is serialized; writes go through a temp file and rename.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Read(name string) ([]domain.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(name)
}

// Update runs fn over the collection and persists what it returns.
func (s *FileStore) Update(name string, fn func([]domain.Doc) ([]domain.Doc, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(name)
	if err != nil {
		return err
	}
	out, err := fn(docs)
	if err != nil {
		return err
	}
	return s.write(name, out)
}

func (s *FileStore) read(name string) ([]domain.Doc, error) {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	var wrapped map[string][]domain.Doc
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return wrapped[name], nil
}

func (s *FileStore) write(name string, docs []domain.Doc) error {
	if docs == nil {
		docs = []domain.Doc{}
	}
	b, err := json.MarshalIndent(map[string][]domain.Doc{name: docs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), s.path(name))
}

func findDoc(docs []domain.Doc, key string) int {
	for i, d := range docs {
		if domain.BookingFromDoc("", d).Matches(key) {
			return i
		}
	}
	return -1
}
