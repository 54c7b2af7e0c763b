package git

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/filesystem"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// commitHash matches abbreviated and full lowercase object names
var commitHash = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// IsCommitHash reports whether ref looks like a commit id rather than a
// branch or tag. Commit ids are not pulled after checkout.
func IsCommitHash(ref string) bool {
	return commitHash.MatchString(ref)
}

// Repository produces checkouts with a Client
type Repository struct {
	client Client
	fs     afero.Fs
	copier *filesystem.Copier
	logger zerolog.Logger

	// TempDir is where private clone directories are made, os.TempDir when empty
	TempDir string
}

// NewRepository returns a Repository. A nil client means the git executable
// and a nil fs means the OS filesystem.
func NewRepository(client Client, fs afero.Fs) *Repository {
	if client == nil {
		client = NewCommandClient()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Repository{
		client: client,
		fs:     fs,
		copier: filesystem.NewCopier(fs),
		logger: logging.GetLogger("git.repository"),
	}
}

// Checkout clones repository at ref and copies the tree, symlinks intact,
// to destination/<name>-<short revision>. An existing directory of that
// name is replaced. The temporary clone is always removed.
func (r *Repository) Checkout(ctx context.Context, name, repository, destination, ref string) (*types.Checkout, error) {
	done := logging.LogOperationStart(r.logger, "checkout "+name)
	defer done()

	tempDir, err := afero.TempDir(r.fs, r.TempDir, "gilt-")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCheckout, "failed to create temporary directory")
	}
	defer func() {
		if err := r.fs.RemoveAll(tempDir); err != nil {
			r.logger.Warn().Err(err).Str("dir", tempDir).Msg("Failed to remove temporary clone")
		}
	}()

	cloneDir := filepath.Join(tempDir, "clone")
	r.logger.Info().
		Str("name", name).
		Str("repository", repository).
		Str("dir", cloneDir).
		Msg("Cloning")

	if err := r.client.Clone(ctx, repository, cloneDir); err != nil {
		return nil, err
	}

	revision, err := r.switchTo(ctx, cloneDir, ref)
	if err != nil {
		return nil, err
	}

	checkout := &types.Checkout{
		Name:       name,
		Repository: repository,
		Version:    ref,
		Revision:   revision,
	}
	checkout.Dir = filepath.Join(destination, fmt.Sprintf("%s-%s", name, checkout.ShortRevision()))
	if !within(destination, checkout.Dir) {
		return nil, errors.Newf(errors.ErrInvalidInput, "checkout %s would be staged outside %s", name, destination).
			WithDetail("name", name).
			WithDetail("dir", checkout.Dir)
	}

	if err := r.copier.Replace(cloneDir, checkout.Dir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCheckout, "failed to stage %s", name).
			WithDetail("dir", checkout.Dir)
	}

	r.logger.Debug().
		Str("name", name).
		Str("revision", revision).
		Str("dir", checkout.Dir).
		Msg("Checkout staged")
	return checkout, nil
}

// switchTo fetches, checks out ref, cleans and fast-forwards branches, and
// returns the resulting HEAD
func (r *Repository) switchTo(ctx context.Context, dir, ref string) (string, error) {
	if err := r.client.Fetch(ctx, dir); err != nil {
		return "", err
	}
	if err := r.client.Checkout(ctx, dir, ref); err != nil {
		return "", err
	}
	if err := r.client.Clean(ctx, dir); err != nil {
		return "", err
	}
	if !IsCommitHash(ref) {
		if err := r.client.Pull(ctx, dir); err != nil {
			return "", err
		}
	}

	revision, err := r.client.RevParse(ctx, dir, "HEAD")
	if err != nil {
		return "", err
	}
	if len(revision) < types.ShortRevisionLength {
		return "", errors.Newf(errors.ErrCheckout, "unexpected revision %q", revision).
			WithDetail("dir", dir)
	}
	return revision, nil
}

// within reports whether path is strictly below root
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
