package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gitCmd runs git in dir with an identity that does not depend on the host
func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	full := append([]string{
		"-c", "user.name=gilt",
		"-c", "user.email=gilt@example.com",
		"-c", "commit.gpgsign=false",
		"-c", "init.defaultBranch=master",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// newUpstream creates a repository with two commits on master and returns
// its path and the first commit
func newUpstream(t *testing.T) (string, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := filepath.Join(t.TempDir(), "ansible-etcd")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tasks"), 0755))
	gitCmd(t, dir, "init", "-q")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "main.yml"), []byte("v1\n"), 0644))
	require.NoError(t, os.Symlink("tasks/main.yml", filepath.Join(dir, "main.yml")))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "first")
	first := gitCmd(t, dir, "rev-parse", "HEAD")
	gitCmd(t, dir, "branch", "-M", "master")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "main.yml"), []byte("v2\n"), 0644))
	gitCmd(t, dir, "commit", "-q", "-am", "second")

	return dir, first
}

func TestCommandClient_Checkout(t *testing.T) {
	upstream, first := newUpstream(t)
	ctx := context.Background()

	repo := NewRepository(nil, nil)
	repo.TempDir = t.TempDir()
	destination := t.TempDir()

	t.Run("branch", func(t *testing.T) {
		checkout, err := repo.Checkout(ctx, "ansible-etcd", upstream, destination, "master")
		require.NoError(t, err)

		head := gitCmd(t, upstream, "rev-parse", "HEAD")
		assert.Equal(t, head, checkout.Revision)
		assert.Equal(t, filepath.Join(destination, "ansible-etcd-"+head[:6]), checkout.Dir)

		data, err := os.ReadFile(filepath.Join(checkout.Dir, "tasks", "main.yml"))
		require.NoError(t, err)
		assert.Equal(t, "v2\n", string(data))

		target, err := os.Readlink(filepath.Join(checkout.Dir, "main.yml"))
		require.NoError(t, err)
		assert.Equal(t, "tasks/main.yml", target)
	})

	t.Run("commit", func(t *testing.T) {
		checkout, err := repo.Checkout(ctx, "ansible-etcd", upstream, destination, first[:7])
		require.NoError(t, err)
		assert.Equal(t, first, checkout.Revision)

		data, err := os.ReadFile(filepath.Join(checkout.Dir, "tasks", "main.yml"))
		require.NoError(t, err)
		assert.Equal(t, "v1\n", string(data))
	})

	t.Run("unknown ref", func(t *testing.T) {
		_, err := repo.Checkout(ctx, "ansible-etcd", upstream, destination, "no-such-branch")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCheckout))
		assert.NotEmpty(t, errors.GetErrorDetails(err)["stderr"])
	})

	entries, err := os.ReadDir(repo.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary clones must be removed")
}

func TestCommandClient_Cancelled(t *testing.T) {
	upstream, _ := newUpstream(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCommandClient().Clone(ctx, upstream, filepath.Join(t.TempDir(), "clone"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInterrupted))
}
