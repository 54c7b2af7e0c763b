package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const fullRevision = "77a95b7d1b4c7a5e1f9c2d3e4f5a6b7c8d9e0f1a"

// MockClient is a mock implementation of Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Clone(ctx context.Context, repository, dir string) error {
	args := m.Called(ctx, repository, dir)
	return args.Error(0)
}

func (m *MockClient) Fetch(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockClient) Checkout(ctx context.Context, dir, ref string) error {
	args := m.Called(ctx, dir, ref)
	return args.Error(0)
}

func (m *MockClient) Clean(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockClient) Pull(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockClient) RevParse(ctx context.Context, dir, rev string) (string, error) {
	args := m.Called(ctx, dir, rev)
	return args.String(0), args.Error(1)
}

// cloneInto makes the mocked Clone write a small tree at its dir argument
func cloneInto(fs afero.Fs) func(mock.Arguments) {
	return func(args mock.Arguments) {
		dir := args.String(2)
		_ = fs.MkdirAll(filepath.Join(dir, "tasks"), 0755)
		_ = afero.WriteFile(fs, filepath.Join(dir, "tasks", "main.yml"), []byte("- debug: msg=hi\n"), 0644)
		_ = afero.WriteFile(fs, filepath.Join(dir, "README.md"), []byte("etcd\n"), 0644)
	}
}

func TestIsCommitHash(t *testing.T) {
	tests := map[string]bool{
		"77a95b7":      true,
		fullRevision:   true,
		"abc123":       false,
		"master":       false,
		"v1.0.0":       false,
		"77A95B7":      false,
		"77a95b7-fix":  false,
		"deadbeefcafe": true,
	}
	for ref, want := range tests {
		assert.Equal(t, want, IsCommitHash(ref), ref)
	}
}

func TestRepository_Checkout_Branch(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	client := new(MockClient)

	client.On("Clone", ctx, "https://github.com/retr0h/ansible-etcd.git", mock.Anything).
		Run(cloneInto(fs)).Return(nil).Once()
	client.On("Fetch", ctx, mock.Anything).Return(nil).Once()
	client.On("Checkout", ctx, mock.Anything, "master").Return(nil).Once()
	client.On("Clean", ctx, mock.Anything).Return(nil).Once()
	client.On("Pull", ctx, mock.Anything).Return(nil).Once()
	client.On("RevParse", ctx, mock.Anything, "HEAD").Return(fullRevision, nil).Once()

	repo := NewRepository(client, fs)
	checkout, err := repo.Checkout(ctx, "ansible-etcd", "https://github.com/retr0h/ansible-etcd.git", "/base/clone", "master")
	require.NoError(t, err)

	assert.Equal(t, "ansible-etcd", checkout.Name)
	assert.Equal(t, "master", checkout.Version)
	assert.Equal(t, fullRevision, checkout.Revision)
	assert.Equal(t, "/base/clone/ansible-etcd-77a95b", checkout.Dir)

	data, err := afero.ReadFile(fs, "/base/clone/ansible-etcd-77a95b/tasks/main.yml")
	require.NoError(t, err)
	assert.Equal(t, "- debug: msg=hi\n", string(data))

	client.AssertExpectations(t)

	// every git call ran inside the same private clone directory
	cloneDir := client.Calls[0].Arguments.String(2)
	assert.Equal(t, "clone", filepath.Base(cloneDir))
	for _, call := range client.Calls[1:] {
		assert.Equal(t, cloneDir, call.Arguments.String(1), call.Method)
	}

	exists, err := afero.DirExists(fs, filepath.Dir(cloneDir))
	require.NoError(t, err)
	assert.False(t, exists, "temporary clone must be removed")
}

func TestRepository_Checkout_CommitSkipsPull(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	client := new(MockClient)

	client.On("Clone", ctx, mock.Anything, mock.Anything).Run(cloneInto(fs)).Return(nil)
	client.On("Fetch", ctx, mock.Anything).Return(nil)
	client.On("Checkout", ctx, mock.Anything, "77a95b7").Return(nil)
	client.On("Clean", ctx, mock.Anything).Return(nil)
	client.On("RevParse", ctx, mock.Anything, "HEAD").Return(fullRevision, nil)

	repo := NewRepository(client, fs)
	_, err := repo.Checkout(ctx, "ansible-etcd", "https://github.com/retr0h/ansible-etcd.git", "/base/clone", "77a95b7")
	require.NoError(t, err)

	client.AssertNotCalled(t, "Pull", mock.Anything, mock.Anything)
}

func TestRepository_Checkout_ReplacesExistingDir(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/base/clone/ansible-etcd-77a95b/stale.txt", []byte("stale"), 0644))

	client := new(MockClient)
	client.On("Clone", ctx, mock.Anything, mock.Anything).Run(cloneInto(fs)).Return(nil)
	client.On("Fetch", ctx, mock.Anything).Return(nil)
	client.On("Checkout", ctx, mock.Anything, mock.Anything).Return(nil)
	client.On("Clean", ctx, mock.Anything).Return(nil)
	client.On("RevParse", ctx, mock.Anything, "HEAD").Return(fullRevision, nil)

	_, err := NewRepository(client, fs).Checkout(ctx, "ansible-etcd", "https://github.com/retr0h/ansible-etcd.git", "/base/clone", "77a95b7")
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/base/clone/ansible-etcd-77a95b/stale.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_Checkout_Failures(t *testing.T) {
	ctx := context.Background()
	cloneErr := errors.New(errors.ErrCheckout, "git clone failed")

	tests := []struct {
		name  string
		setup func(m *MockClient, fs afero.Fs)
	}{
		{
			name: "clone fails",
			setup: func(m *MockClient, fs afero.Fs) {
				m.On("Clone", ctx, mock.Anything, mock.Anything).Return(cloneErr)
			},
		},
		{
			name: "checkout of unknown ref fails",
			setup: func(m *MockClient, fs afero.Fs) {
				m.On("Clone", ctx, mock.Anything, mock.Anything).Run(cloneInto(fs)).Return(nil)
				m.On("Fetch", ctx, mock.Anything).Return(nil)
				m.On("Checkout", ctx, mock.Anything, mock.Anything).
					Return(errors.New(errors.ErrCheckout, "git checkout failed"))
			},
		},
		{
			name: "short revision",
			setup: func(m *MockClient, fs afero.Fs) {
				m.On("Clone", ctx, mock.Anything, mock.Anything).Run(cloneInto(fs)).Return(nil)
				m.On("Fetch", ctx, mock.Anything).Return(nil)
				m.On("Checkout", ctx, mock.Anything, mock.Anything).Return(nil)
				m.On("Clean", ctx, mock.Anything).Return(nil)
				m.On("RevParse", ctx, mock.Anything, "HEAD").Return("abc", nil)
			},
		},
		{
			name: "clone produced nothing",
			setup: func(m *MockClient, fs afero.Fs) {
				m.On("Clone", ctx, mock.Anything, mock.Anything).Return(nil)
				m.On("Fetch", ctx, mock.Anything).Return(nil)
				m.On("Checkout", ctx, mock.Anything, mock.Anything).Return(nil)
				m.On("Clean", ctx, mock.Anything).Return(nil)
				m.On("RevParse", ctx, mock.Anything, "HEAD").Return(fullRevision, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			client := new(MockClient)
			tt.setup(client, fs)

			checkout, err := NewRepository(client, fs).Checkout(ctx, "ansible-etcd", "https://example.com/ansible-etcd.git", "/base/clone", "77a95b7")
			require.Error(t, err)
			assert.Nil(t, checkout)
			assert.True(t, errors.IsErrorCode(err, errors.ErrCheckout), "got %v", err)

			exists, err := afero.DirExists(fs, "/base/clone/ansible-etcd-77a95b")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestRepository_Checkout_NameCannotEscapeDestination(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	precious := "/base/outside-77a95b/precious.txt"
	require.NoError(t, afero.WriteFile(fs, precious, []byte("keep me"), 0644))

	client := new(MockClient)
	client.On("Clone", ctx, mock.Anything, mock.Anything).Run(cloneInto(fs)).Return(nil)
	client.On("Fetch", ctx, mock.Anything).Return(nil)
	client.On("Checkout", ctx, mock.Anything, mock.Anything).Return(nil)
	client.On("Clean", ctx, mock.Anything).Return(nil)
	client.On("RevParse", ctx, mock.Anything, "HEAD").Return(fullRevision, nil)

	checkout, err := NewRepository(client, fs).Checkout(ctx, "../outside", "https://github.com/retr0h/ansible-etcd.git", "/base/clone", "77a95b7")
	require.Error(t, err)
	assert.Nil(t, checkout)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)

	data, err := afero.ReadFile(fs, precious)
	require.NoError(t, err, "nothing outside the destination is replaced")
	assert.Equal(t, "keep me", string(data))
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/base/clone", "/base/clone/ansible-etcd-77a95b"))
	assert.True(t, within("/base/clone", "/base/clone/..-77a95b"))
	assert.False(t, within("/base/clone", "/base/clone"))
	assert.False(t, within("/base/clone", "/base/outside-77a95b"))
	assert.False(t, within("/base/clone", "/etc"))
}
