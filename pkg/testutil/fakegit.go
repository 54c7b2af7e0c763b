package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/types"
	"github.com/spf13/afero"
)

// FakeRepo is one scripted repository served by FakeGit
type FakeRepo struct {
	// Revision returned for every version
	Revision string

	// Tree written into the checkout directory
	Tree Tree
}

// CheckoutCall records one FakeGit.Checkout invocation
type CheckoutCall struct {
	Name        string
	Repository  string
	Destination string
	Version     string
}

// FakeGit serves checkouts from Repos, keyed by repository locator,
// without running git
type FakeGit struct {
	T    *testing.T
	FS   afero.Fs
	Repo map[string]FakeRepo

	// CheckoutFunc, when set, runs before the checkout is written. A non-nil
	// error is returned as is.
	CheckoutFunc func(ctx context.Context, call CheckoutCall) error

	mu    sync.Mutex
	calls []CheckoutCall
}

// NewFakeGit returns a FakeGit writing to fs
func NewFakeGit(t *testing.T, fs afero.Fs, repos map[string]FakeRepo) *FakeGit {
	return &FakeGit{T: t, FS: fs, Repo: repos}
}

// Checkout writes the scripted tree to destination/<name>-<short revision>
func (f *FakeGit) Checkout(ctx context.Context, name, repository, destination, ref string) (*types.Checkout, error) {
	call := CheckoutCall{Name: name, Repository: repository, Destination: destination, Version: ref}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.CheckoutFunc != nil {
		if err := f.CheckoutFunc(ctx, call); err != nil {
			return nil, err
		}
	}

	repo, ok := f.Repo[repository]
	if !ok {
		return nil, errors.Newf(errors.ErrCheckout, "git clone failed: repository %s not found", repository).
			WithDetail("repository", repository)
	}

	checkout := &types.Checkout{
		Name:       name,
		Repository: repository,
		Version:    ref,
		Revision:   repo.Revision,
	}
	checkout.Dir = filepath.Join(destination, fmt.Sprintf("%s-%s", name, checkout.ShortRevision()))

	if err := f.FS.RemoveAll(checkout.Dir); err != nil {
		return nil, errors.Wrap(err, errors.ErrCheckout, "failed to clear checkout")
	}
	WriteTree(f.T, f.FS, checkout.Dir, repo.Tree)
	return checkout, nil
}

// Calls returns the checkouts requested so far
func (f *FakeGit) Calls() []CheckoutCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CheckoutCall(nil), f.calls...)
}
