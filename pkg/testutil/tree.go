package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SymlinkPrefix marks a tree entry as a symlink: "-> target"
const SymlinkPrefix = "-> "

// Tree maps slash-separated relative paths to file contents. A value
// starting with SymlinkPrefix is a symlink to the rest of the value.
// A path ending in "/" is an empty directory.
type Tree map[string]string

// WriteTree creates tree below root
func WriteTree(t *testing.T, fs afero.Fs, root string, tree Tree) {
	t.Helper()

	for rel, content := range tree {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, fs.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))

		if strings.HasPrefix(content, SymlinkPrefix) {
			linker, ok := fs.(afero.Linker)
			require.True(t, ok, "filesystem does not support symlinks")
			require.NoError(t, linker.SymlinkIfPossible(strings.TrimPrefix(content, SymlinkPrefix), path))
			continue
		}
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

// ReadTree returns every file and symlink below root. Directories only
// appear when empty.
func ReadTree(t *testing.T, fs afero.Fs, root string) Tree {
	t.Helper()

	tree := Tree{}
	lstater, canLstat := fs.(afero.Lstater)
	reader, canReadlink := fs.(afero.LinkReader)

	var walk func(dir string)
	walk = func(dir string) {
		entries, err := afero.ReadDir(fs, dir)
		require.NoError(t, err)

		if len(entries) == 0 && dir != root {
			tree[relSlash(t, root, dir)+"/"] = ""
			return
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			info := entry
			if canLstat {
				info, _, err = lstater.LstatIfPossible(path)
				require.NoError(t, err)
			}

			switch {
			case info.Mode()&os.ModeSymlink != 0 && canReadlink:
				target, err := reader.ReadlinkIfPossible(path)
				require.NoError(t, err)
				tree[relSlash(t, root, path)] = SymlinkPrefix + target
			case info.IsDir():
				walk(path)
			default:
				data, err := afero.ReadFile(fs, path)
				require.NoError(t, err)
				tree[relSlash(t, root, path)] = string(data)
			}
		}
	}
	walk(root)

	return tree
}

// Paths returns the sorted keys of tree
func (tree Tree) Paths() []string {
	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func relSlash(t *testing.T, root, path string) string {
	t.Helper()
	rel, err := filepath.Rel(root, path)
	require.NoError(t, err)
	return filepath.ToSlash(rel)
}
