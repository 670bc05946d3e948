package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type fileState struct {
	Token     string `json:"token,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// FileStore хранит значения в JSON-файле с правами 0600.
// Запись атомарная: временный файл и rename в том же каталоге.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создаёт хранилище поверх файла path. Файл создаётся при первой записи.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath возвращает путь к файлу сессии в пользовательском каталоге конфигурации.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sitectl", "session.json"), nil
}

func (f *FileStore) Token(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return "", err
	}
	return st.Token, nil
}

func (f *FileStore) SetToken(_ context.Context, token string) error {
	return f.update(func(st *fileState) { st.Token = token })
}

func (f *FileStore) ClearToken(_ context.Context) error {
	return f.update(func(st *fileState) { st.Token = "" })
}

func (f *FileStore) ProfileID(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return "", err
	}
	return st.ProfileID, nil
}

func (f *FileStore) SetProfileID(_ context.Context, id string) error {
	return f.update(func(st *fileState) { st.ProfileID = id })
}

func (f *FileStore) update(apply func(st *fileState)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		// повреждённый файл перезаписываем с нуля
		st = fileState{}
	}
	apply(&st)
	return f.write(st)
}

func (f *FileStore) read() (fileState, error) {
	const op = "tokenstore.FileStore.read"
	var st fileState

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return fileState{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

func (f *FileStore) write(st fileState) error {
	const op = "tokenstore.FileStore.write"

	if st == (fileState{}) {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
