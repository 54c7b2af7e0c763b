package filesystem

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DirPerm is used for every directory the copier creates
const DirPerm = 0755

// Copier materializes operations onto an afero filesystem
type Copier struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewCopier returns a Copier over fs. A nil fs means the OS filesystem.
func NewCopier(fs afero.Fs) *Copier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Copier{
		fs:     fs,
		logger: logging.GetLogger("filesystem.copier"),
	}
}

// Fs returns the underlying filesystem
func (c *Copier) Fs() afero.Fs {
	return c.fs
}

// Apply performs op
func (c *Copier) Apply(op types.Operation) error {
	c.logger.Debug().
		Str("type", string(op.Type)).
		Str("source", op.Source).
		Str("target", op.Target).
		Msg("Applying operation")

	if op.Replace() {
		return c.Replace(op.Source, op.Target)
	}
	return c.Copy(op.Source, op.Target)
}

// EnsureDir creates path and its parents. Existing directories are fine.
func (c *Copier) EnsureDir(path string) error {
	if err := c.fs.MkdirAll(path, DirPerm); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", path).
			WithDetail("path", path)
	}
	return nil
}

// Replace copies src to dst. When src is a directory any existing dst is
// removed first, so the result holds exactly the tree of src.
func (c *Copier) Replace(src, dst string) error {
	srcInfo, err := c.lstat(src)
	if err != nil {
		return c.sourceError(err, src)
	}

	if srcInfo.IsDir() {
		if _, err := c.lstat(dst); err == nil {
			c.logger.Debug().Str("target", dst).Msg("Removing existing target")
			if err := c.fs.RemoveAll(dst); err != nil {
				return errors.Wrapf(err, errors.ErrMaterialize, "failed to remove %s", dst).
					WithDetail("path", dst)
			}
		}
	}

	return c.Copy(src, dst)
}

// Copy copies the file, directory or symlink at src to dst, creating parent
// directories. Directories are merged into an existing dst. A file copied
// onto an existing directory lands inside it.
func (c *Copier) Copy(src, dst string) error {
	srcInfo, err := c.lstat(src)
	if err != nil {
		return c.sourceError(err, src)
	}

	switch {
	case srcInfo.IsDir():
		return c.copyDir(src, dst)
	case srcInfo.Mode()&os.ModeSymlink != 0:
		return c.copySymlink(src, c.fileTarget(src, dst))
	default:
		return c.copyFile(src, c.fileTarget(src, dst), srcInfo)
	}
}

// fileTarget places a file inside dst when dst is an existing directory
func (c *Copier) fileTarget(src, dst string) string {
	if info, err := c.fs.Stat(dst); err == nil && info.IsDir() {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

func (c *Copier) copyDir(src, dst string) error {
	return afero.Walk(c.fs, src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return c.sourceError(err, path)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to compute relative path")
		}
		target := filepath.Join(dst, rel)

		// afero.Walk reports symlinks through Lstat when the fs supports it
		if info.Mode()&os.ModeSymlink != 0 {
			return c.copySymlink(path, target)
		}
		if info.IsDir() {
			if err := c.EnsureDir(target); err != nil {
				return err
			}
			return nil
		}
		return c.copyFile(path, target, info)
	})
}

func (c *Copier) copyFile(src, dst string, info fs.FileInfo) error {
	if err := c.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	in, err := c.fs.Open(src)
	if err != nil {
		return c.sourceError(err, src)
	}
	defer func() {
		_ = in.Close()
	}()

	// An existing symlink at dst must not be written through
	if existing, err := c.lstat(dst); err == nil && existing.Mode()&os.ModeSymlink != 0 {
		if err := c.fs.Remove(dst); err != nil {
			return c.materializeError(err, "remove", dst)
		}
	}

	out, err := c.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return c.materializeError(err, "create", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return c.materializeError(err, "write", dst)
	}
	if err := out.Close(); err != nil {
		return c.materializeError(err, "close", dst)
	}

	if err := c.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return c.materializeError(err, "chmod", dst)
	}
	if err := c.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return c.materializeError(err, "chtimes", dst)
	}
	return nil
}

func (c *Copier) copySymlink(src, dst string) error {
	reader, ok := c.fs.(afero.LinkReader)
	if !ok {
		return errors.Newf(errors.ErrMaterialize, "filesystem cannot read symlink %s", src).
			WithDetail("path", src)
	}
	linker, ok := c.fs.(afero.Linker)
	if !ok {
		return errors.Newf(errors.ErrMaterialize, "filesystem cannot create symlink %s", dst).
			WithDetail("path", dst)
	}

	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return c.sourceError(err, src)
	}
	if err := c.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if _, err := c.lstat(dst); err == nil {
		if err := c.fs.RemoveAll(dst); err != nil {
			return c.materializeError(err, "remove", dst)
		}
	}
	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return c.materializeError(err, "symlink", dst)
	}
	return nil
}

// lstat does not follow symlinks when the filesystem can tell them apart
func (c *Copier) lstat(path string) (fs.FileInfo, error) {
	if lstater, ok := c.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return c.fs.Stat(path)
}

func (c *Copier) sourceError(err error, path string) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, errors.ErrFileNotFound, "source %s does not exist", path).
			WithDetail("path", path)
	}
	return c.materializeError(err, "read", path)
}

func (c *Copier) materializeError(err error, op, path string) error {
	return errors.Wrapf(err, errors.ErrMaterialize, "failed to %s %s", op, path).
		WithDetail("path", path)
}
