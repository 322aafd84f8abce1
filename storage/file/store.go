// Package file exports and imports serialized indexes as standalone files.
//
// Every operation holds an advisory lock on "<path>.lock" for its duration:
// exclusive for Export, shared for Import. Exports write to a temporary file
// in the target directory and rename it into place, so readers never see a
// partial index.
package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/medrank/index"
)

const (
	defaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
	lockSuffix         = ".lock"
)

// ErrLocked is returned when the lock could not be acquired before the
// lock timeout elapsed.
var ErrLocked = errors.New("index file is locked")

// Store reads and writes index files.
type Store struct {
	lockTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLockTimeout bounds how long Export and Import wait for the lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout <= 0 {
			return fmt.Errorf("lock timeout must be positive, got %s", timeout)
		}
		s.lockTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a Store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		lockTimeout: defaultLockTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Export writes idx to path, replacing any existing file.
func (s *Store) Export(ctx context.Context, path string, idx *index.Index) error {
	if idx == nil {
		return errors.New("index is required")
	}
	unlock, err := s.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := index.Save(tmp, idx); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	s.logger.Info("index exported", "path", path, "items", idx.Len(), "tags", idx.VocabularySize())
	return nil
}

// Import reads the index stored at path.
// Malformed content is reported as an error wrapping core.ErrCorruptIndex.
func (s *Store) Import(ctx context.Context, path string) (*index.Index, error) {
	unlock, err := s.lock(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := index.Load(f)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	s.logger.Info("index imported", "path", path, "items", idx.Len(), "tags", idx.VocabularySize())
	return idx, nil
}

func (s *Store) lock(ctx context.Context, path string, exclusive bool) (func(), error) {
	lockPath := path + lockSuffix
	l := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if exclusive {
		locked, err = l.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = l.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
		}
		return nil, fmt.Errorf("cannot acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}
