package overlay

import (
	"context"
	"path/filepath"
	"time"

	"github.com/arthur-debert/gilt/pkg/config"
	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/filesystem"
	"github.com/arthur-debert/gilt/pkg/git"
	"github.com/arthur-debert/gilt/pkg/lock"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/transform"
	"github.com/arthur-debert/gilt/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Checkouter stages a repository at a version below destination
type Checkouter interface {
	Checkout(ctx context.Context, name, repository, destination, ref string) (*types.Checkout, error)
}

// Options tune an Engine
type Options struct {
	// Cleanup removes the clone directory (and an isolated base directory)
	// when the run ends
	Cleanup bool

	// DryRun checks out and resolves but writes nothing to the output directory
	DryRun bool

	// Git stages checkouts; git.Repository over FS when nil
	Git Checkouter

	// FS is the filesystem for working and output directories; the OS when
	// nil. The lock file always lives on the OS filesystem.
	FS afero.Fs
}

// Engine runs the overlays of one Config
type Engine struct {
	cfg    *config.Config
	opts   Options
	fs     afero.Fs
	copier *filesystem.Copier
	logger zerolog.Logger
}

// New returns an Engine for cfg
func New(cfg *config.Config, opts Options) *Engine {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Git == nil {
		opts.Git = git.NewRepository(nil, opts.FS)
	}
	return &Engine{
		cfg:    cfg,
		opts:   opts,
		fs:     opts.FS,
		copier: filesystem.NewCopier(opts.FS),
		logger: logging.GetLogger("overlay"),
	}
}

// Overlay checks out every overlay in order and copies its files into
// outputDir. The first failure aborts the run. Whatever happens, the
// working directories are cleaned up (unless disabled) and the lock is
// released before Overlay returns. A cancelled ctx yields an INTERRUPTED
// error.
func (e *Engine) Overlay(ctx context.Context, outputDir string) (result *Result, err error) {
	start := time.Now()
	result = &Result{
		BaseDir:  e.cfg.BaseDir,
		RunID:    e.cfg.RunID,
		DryRun:   e.opts.DryRun,
		Overlays: []OverlayResult{},
	}
	result.enter(StateInit)

	if abs, absErr := filepath.Abs(outputDir); absErr == nil {
		outputDir = abs
	}
	result.OutputDir = outputDir

	var fileLock *lock.FileLock
	defer func() {
		if ferr := e.finalize(result, fileLock); ferr != nil && err == nil {
			err = ferr
		}
		// a signal after the last overlay still fails the run
		if ctx.Err() != nil && !errors.IsErrorCode(err, errors.ErrInterrupted) {
			if err == nil {
				err = errors.FromContext(ctx, "overlay run interrupted")
			} else {
				err = errors.Wrap(err, errors.ErrInterrupted, "overlay run interrupted")
			}
		}

		if err != nil {
			result.Error = err.Error()
			result.FailedOverlay = errors.OverlayOf(err)
			result.enter(StateAborted)
			e.logger.Error().Err(err).Msg("Overlay run aborted")
		} else {
			result.enter(StateCompleted)
		}
		result.Duration = time.Since(start)
	}()

	// ENVIRONMENT_READY
	for _, dir := range []string{e.cfg.BaseDir, e.cfg.CloneDir, filepath.Dir(e.cfg.LockFile)} {
		if err := e.copier.EnsureDir(dir); err != nil {
			return result, err
		}
	}
	result.enter(StateEnvironmentReady)

	// LOCK_ACQUIRED
	l := lock.New(e.cfg.LockFile)
	e.logger.Debug().Str("lock_file", e.cfg.LockFile).Msg("Using lock file")
	if err := l.Lock(ctx); err != nil {
		return result, err
	}
	fileLock = l
	result.enter(StateLockAcquired)

	// the previous holder may have cleaned up the shared clone dir
	if err := e.copier.EnsureDir(e.cfg.CloneDir); err != nil {
		return result, err
	}

	for _, o := range e.cfg.Overlays {
		if err := e.interrupted(ctx); err != nil {
			return result, err
		}

		overlayResult, err := e.run(ctx, result, o, outputDir)
		if overlayResult != nil {
			result.Overlays = append(result.Overlays, *overlayResult)
		}
		if err != nil {
			return result, errors.WithOverlay(err, o.Name, errors.ErrMaterialize)
		}
	}

	return result, nil
}

// run processes one overlay: CHECKOUT, TRANSFORM, MATERIALIZE
func (e *Engine) run(ctx context.Context, result *Result, o config.Overlay, outputDir string) (*OverlayResult, error) {
	logger := e.logger.With().Str("overlay", o.Name).Logger()
	out := &OverlayResult{Overlay: o, Operations: []types.Operation{}}

	result.enter(StateCheckout)
	logger.Info().Str("version", o.Version).Msg("Cloning")
	checkout, err := e.opts.Git.Checkout(ctx, o.Name, o.Git, e.cfg.CloneDir, o.Version)
	if err != nil {
		if errors.GetErrorCode(err) == errors.ErrUnknown {
			err = errors.Wrap(err, errors.ErrCheckout, "checkout failed")
		}
		return out, err
	}
	out.Checkout = checkout
	logger.Info().Str("dir", checkout.Dir).Msg("Cloned")

	result.enter(StateTransform)
	resolveFs := e.fs
	if e.opts.DryRun {
		// directory targets created during resolution stay in memory
		resolveFs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(e.fs), afero.NewMemMapFs())
	}
	ops, err := transform.Resolve(resolveFs, checkout.Dir, outputDir, o.Transforms())
	if err != nil {
		return out, err
	}
	out.Operations = ops

	result.enter(StateMaterialize)
	for _, op := range ops {
		if err := e.interrupted(ctx); err != nil {
			return out, err
		}
		if e.opts.DryRun {
			logger.Info().Str("source", op.Source).Str("target", op.Target).Msg("Would copy")
			continue
		}
		logger.Info().Str("source", op.Source).Str("target", op.Target).Msg("Copying")
		if err := e.copier.Apply(op); err != nil {
			return out, err
		}
		out.Applied++
	}

	return out, nil
}

// finalize removes the clone directory while the lock is still held, then
// releases the lock, then removes an isolated base directory
func (e *Engine) finalize(result *Result, fileLock *lock.FileLock) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// without the lock another run may own the clone dir
	removed := false
	if e.opts.Cleanup && fileLock != nil {
		e.logger.Info().Str("dir", e.cfg.CloneDir).Msg("Cleaning up")
		err := e.remove(e.cfg.CloneDir)
		keep(err)
		removed = err == nil
	}

	if fileLock != nil {
		keep(fileLock.Unlock())
		result.enter(StateLockReleased)
	}

	if !e.opts.Cleanup {
		e.logger.Info().Msg("Not cleaning up as requested")
		return firstErr
	}

	if e.cfg.Isolated() {
		err := e.remove(e.cfg.BaseDir)
		keep(err)
		removed = removed || err == nil
	}

	if removed {
		result.CleanedUp = true
		result.enter(StateCleanedUp)
	}
	return firstErr
}

func (e *Engine) remove(dir string) error {
	if err := e.fs.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", dir).
			WithDetail("path", dir)
	}
	return nil
}

func (e *Engine) interrupted(ctx context.Context) error {
	if err := errors.FromContext(ctx, "overlay run interrupted"); err != nil {
		return err
	}
	return nil
}
