package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetry is how often a blocked caller retries the document lock.
const lockRetry = 5 * time.Millisecond

// FileStore keeps every key in one JSON document on disk. The document is
// re-read on each call so separate processes sharing the path see each
// other's writes. Every read-modify-write runs under an advisory lock on
// path+".lock", so writes to different keys from different handles never
// undo each other.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path is the location of the backing document.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(ctx context.Context, key string) (v string, ok bool, err error) {
	err = s.locked(ctx, true, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		v, ok = data[key]
		return nil
	})
	return v, ok, err
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.locked(ctx, false, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		data[key] = value
		return s.save(data)
	})
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	return s.locked(ctx, false, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := data[key]; !ok {
			return nil
		}
		delete(data, key)
		return s.save(data)
	})
}

func (s *FileStore) Clear(ctx context.Context) error {
	return s.locked(ctx, false, func() error {
		return s.save(map[string]string{})
	})
}

// locked runs fn holding the mutex and the file lock, shared for reads and
// exclusive for writes. A flock does not exclude goroutines sharing its
// descriptor, hence the mutex.
func (s *FileStore) locked(ctx context.Context, shared bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	try := s.lock.TryLockContext
	if shared {
		try = s.lock.TryRLockContext
	}
	ok, err := try(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock store file: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock store file %s: not acquired", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// Ping checks that the directory holding the document is writable.
func (s *FileStore) Ping(context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("file store dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("file store not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
