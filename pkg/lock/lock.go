package lock

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DefaultPollInterval is how often a waiting Lock retries
const DefaultPollInterval = 100 * time.Millisecond

// FileLock is an exclusive lock on a file path
type FileLock struct {
	path string

	// PollInterval between attempts while another process holds the lock
	PollInterval time.Duration

	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

// New returns an unlocked FileLock for path
func New(path string) *FileLock {
	return &FileLock{
		path:         path,
		PollInterval: DefaultPollInterval,
		logger:       logging.GetLogger("lock"),
	}
}

// Path returns the lock file path
func (l *FileLock) Path() string {
	return l.path
}

// Lock blocks until the lock is held or ctx is done. A cancelled wait
// returns an INTERRUPTED error.
func (l *FileLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return errors.Newf(errors.ErrLock, "lock %s already held", l.path).WithDetail("path", l.path)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "failed to create lock directory").
			WithDetail("path", l.path)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrLock, "failed to open lock file %s", l.path).
			WithDetail("path", l.path)
	}

	interval := l.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	waiting := false
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !stderrors.Is(err, unix.EWOULDBLOCK) && !stderrors.Is(err, unix.EINTR) {
			_ = f.Close()
			return errors.Wrapf(err, errors.ErrLock, "failed to lock %s", l.path).
				WithDetail("path", l.path)
		}

		if !waiting {
			l.logger.Info().Str("path", l.path).Msg("Waiting for another gilt run to finish")
			waiting = true
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return errors.Wrapf(ctx.Err(), errors.ErrInterrupted, "interrupted while waiting for lock %s", l.path).
				WithDetail("path", l.path)
		case <-time.After(interval):
		}
	}

	l.file = f
	l.logger.Debug().Str("path", l.path).Msg("Lock acquired")
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil

	unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	closeErr := f.Close()
	if unlockErr != nil {
		return errors.Wrapf(unlockErr, errors.ErrLock, "failed to unlock %s", l.path).
			WithDetail("path", l.path)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, errors.ErrLock, "failed to close lock file %s", l.path).
			WithDetail("path", l.path)
	}

	l.logger.Debug().Str("path", l.path).Msg("Lock released")
	return nil
}
