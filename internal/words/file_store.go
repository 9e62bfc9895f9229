package words

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/palemoky/spelling-bee/internal/apperrors"
)

// fileData is the on-disk layout of the word file.
type fileData struct {
	Categories []string `json:"categories"`
	Words      []Word   `json:"words"`
}

// FileStore keeps the word bank in a single JSON file. Every operation
// re-reads the file so hand edits are picked up.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens path, creating an empty word file if needed.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create word directory: %w", err)
		}
		if err := s.write(&fileData{Categories: []string{}, Words: []Word{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) read() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read words file: %w", err)
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse words file: %w", err)
	}
	if data.Categories == nil {
		data.Categories = []string{}
	}
	if data.Words == nil {
		data.Words = []Word{}
	}
	return &data, nil
}

// write replaces the file atomically, indented with four spaces.
func (s *FileStore) write(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".words-*.json")
	if err != nil {
		return fmt.Errorf("write words file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write words file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write words file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func nextID(words []Word) int {
	maxID := 0
	for _, w := range words {
		maxID = max(maxID, w.ID)
	}
	return maxID + 1
}

func indexOf(words []Word, id int) int {
	return slices.IndexFunc(words, func(w Word) bool { return w.ID == id })
}

func hasDuplicate(words []Word, w Word, exceptID int) bool {
	key := w.Key()
	return slices.ContainsFunc(words, func(other Word) bool {
		return other.ID != exceptID && other.Key() == key
	})
}

// List 返回按单词排序的全部单词
func (s *FileStore) List(_ context.Context) ([]Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	words := slices.Clone(data.Words)
	slices.SortStableFunc(words, func(a, b Word) int {
		return cmp.Or(cmp.Compare(a.Key(), b.Key()), cmp.Compare(a.ID, b.ID))
	})
	return words, nil
}

func (s *FileStore) Get(_ context.Context, id int) (Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return Word{}, err
	}
	i := indexOf(data.Words, id)
	if i < 0 {
		return Word{}, apperrors.ErrWordNotFound
	}
	return data.Words[i], nil
}

func (s *FileStore) Create(_ context.Context, w Word) (Word, error) {
	if err := w.Validate(); err != nil {
		return Word{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return Word{}, err
	}
	if hasDuplicate(data.Words, w, 0) {
		return Word{}, apperrors.ErrDuplicateWord
	}
	w.ID = nextID(data.Words)
	data.Words = append(data.Words, w)
	if err := s.write(data); err != nil {
		return Word{}, err
	}
	return w, nil
}

func (s *FileStore) Update(_ context.Context, id int, w Word) (Word, error) {
	if err := w.Validate(); err != nil {
		return Word{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return Word{}, err
	}
	i := indexOf(data.Words, id)
	if i < 0 {
		return Word{}, apperrors.ErrWordNotFound
	}
	if hasDuplicate(data.Words, w, id) {
		return Word{}, apperrors.ErrDuplicateWord
	}
	w.ID = id
	data.Words[i] = w
	if err := s.write(data); err != nil {
		return Word{}, err
	}
	return w, nil
}

func (s *FileStore) Delete(_ context.Context, id int) (Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return Word{}, err
	}
	i := indexOf(data.Words, id)
	if i < 0 {
		return Word{}, apperrors.ErrWordNotFound
	}
	deleted := data.Words[i]
	data.Words = slices.Delete(data.Words, i, i+1)
	if err := s.write(data); err != nil {
		return Word{}, err
	}
	return deleted, nil
}

func (s *FileStore) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	return data.Categories, nil
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error { return nil }
