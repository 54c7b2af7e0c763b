// internal/cli/cli_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Filesystem (t.TempDir), testutil.FakeGit
// PURPOSE: Drive the cobra commands end to end and check exit codes

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const etcdRepo = "https://github.com/retr0h/ansible-etcd.git"

type env struct {
	dir      string
	base     string
	settings string
	manifest string
	git      *testutil.FakeGit
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	for _, name := range []string{"GILT_BASE_DIR", "GILT_DEFAULT_VERSION", "GILT_ISOLATE", "GILT_LOCK_FILE", "GILT_CLONE_DIR"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	dir := t.TempDir()
	e := &env{
		dir:      dir,
		base:     filepath.Join(dir, "base"),
		settings: filepath.Join(dir, "settings.yml"),
		manifest: filepath.Join(dir, "gilt.yml"),
	}
	require.NoError(t, os.WriteFile(e.settings, []byte("base_dir: "+e.base+"\n"), 0644))
	require.NoError(t, os.WriteFile(e.manifest, []byte(`
- git: `+etcdRepo+`
  version: 77a95b7
  dst: roles/etcd/
`), 0644))

	e.git = testutil.NewFakeGit(t, afero.NewOsFs(), map[string]testutil.FakeRepo{
		etcdRepo: {
			Revision: "77a95b7d1b4c7a5e1f9c2d3e4f5a6b7c8d9e0f1a",
			Tree: testutil.Tree{
				"tasks/main.yml": "- include: install.yml\n",
				"README.md":      "etcd role\n",
			},
		},
	})
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&rootOptions{git: e.git})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--settings", e.settings}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOverlayCmd(t *testing.T) {
	e := newEnv(t)
	output := filepath.Join(e.dir, "out")

	out, err := e.run(t, "overlay", "--config", e.manifest, "--output-dir", output, "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "ansible-etcd (77a95b7 @ 77a95b)")
	assert.FileExists(t, filepath.Join(output, "roles", "etcd", "tasks", "main.yml"))
	assert.FileExists(t, filepath.Join(output, "roles", "etcd", "README.md"))
	assert.NoDirExists(t, filepath.Join(e.base, "clone"))
	assert.FileExists(t, filepath.Join(e.base, "lock"))
}

func TestOverlayCmd_NoCleanup(t *testing.T) {
	e := newEnv(t)
	output := filepath.Join(e.dir, "out")

	_, err := e.run(t, "overlay", "-c", e.manifest, "-o", output, "--no-cleanup", "-f", "text")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(e.base, "clone", "ansible-etcd-77a95b"))
}

func TestOverlayCmd_CleanupFlagsExclusive(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "overlay", "-c", e.manifest, "--cleanup", "--no-cleanup")
	assert.Error(t, err)
	assert.Empty(t, e.git.Calls())
}

func TestOverlayCmd_DryRunJSON(t *testing.T) {
	e := newEnv(t)
	output := filepath.Join(e.dir, "out")

	out, err := e.run(t, "overlay", "-c", e.manifest, "-o", output, "--dry-run", "--format", "json")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["dry_run"])
	assert.Equal(t, "COMPLETED", decoded["state"])
	assert.NoDirExists(t, filepath.Join(output, "roles"))
}

func TestOverlayCmd_BaseDirFlag(t *testing.T) {
	e := newEnv(t)
	other := filepath.Join(e.dir, "other")

	_, err := e.run(t, "overlay", "-c", e.manifest, "-o", filepath.Join(e.dir, "out"),
		"--base-dir", other, "-f", "text")
	require.NoError(t, err)

	require.Len(t, e.git.Calls(), 1)
	assert.Equal(t, filepath.Join(other, "clone"), e.git.Calls()[0].Destination)
	assert.FileExists(t, filepath.Join(other, "lock"))
}

func TestOverlayCmd_CheckoutFailure(t *testing.T) {
	e := newEnv(t)
	output := filepath.Join(e.dir, "out")
	require.NoError(t, os.MkdirAll(output, 0755))
	require.NoError(t, os.WriteFile(e.manifest, []byte(`
- git: https://example.com/missing.git
  dst: roles/missing/
- git: `+etcdRepo+`
  version: 77a95b7
  dst: roles/etcd/
`), 0644))

	out, err := e.run(t, "overlay", "-c", e.manifest, "-o", output, "-f", "text")
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrCheckout))
	assert.Equal(t, "missing", errors.OverlayOf(err))
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "Error:")

	// nothing is written, not even the dst directory of the failed overlay
	assert.Empty(t, testutil.ReadTree(t, afero.NewOsFs(), output))
	assert.Len(t, e.git.Calls(), 1)
}

func TestOverlayCmd_MissingManifest(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "overlay", "-c", filepath.Join(e.dir, "nope.yml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestOverlayCmd_BadFormat(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "overlay", "-c", e.manifest, "-f", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format: xml")
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Empty(t, e.git.Calls())
}

func TestValidateCmd(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "validate", "-c", e.manifest)
	require.NoError(t, err)

	assert.Contains(t, out, "git: "+etcdRepo)
	assert.Contains(t, out, "name: ansible-etcd")
	assert.Contains(t, out, "version: 77a95b7")
}

func TestValidateCmd_ParseError(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.manifest, []byte("- version: master\n"), 0644))

	_, err := e.run(t, "validate", "-c", e.manifest)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestSettingsCmd(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "base_dir: "+e.base)
	assert.Contains(t, out, "default_version: master")

	out, err = e.run(t, "settings", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "base_dir = ")
}

func TestManifestCmd(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "manifest")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest")
}

func TestVersionCmd(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gilt version")
}

func TestCompletionCmd(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "gilt")

	_, err = e.run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitInterrupted, ExitCode(errors.New(errors.ErrInterrupted, "interrupted")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New(errors.ErrLock, "lock")))
	assert.Equal(t, ExitFailure, ExitCode(context.Canceled))
}

func TestOverlayCmd_Interrupted(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmd(&rootOptions{git: e.git})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--settings", e.settings, "overlay", "-c", e.manifest, "-o", e.dir, "-f", "text"})
	err := cmd.ExecuteContext(ctx)

	require.Error(t, err)
	assert.Equal(t, ExitInterrupted, ExitCode(err))
	assert.Empty(t, e.git.Calls())
}
