package transform

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gilt/pkg/config"
	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/paths"
	"github.com/arthur-debert/gilt/pkg/types"
	"github.com/spf13/afero"
)

// IsGlob reports whether src contains glob metacharacters
func IsGlob(src string) bool {
	return strings.ContainsAny(src, "*?[")
}

// Resolve expands transforms against checkoutDir into operations writing
// below outputDir. Operations come out in declaration order, then in
// lexical match order within a glob.
func Resolve(fs afero.Fs, checkoutDir, outputDir string, transforms []config.FileTransform) ([]types.Operation, error) {
	logger := logging.GetLogger("transform")
	var ops []types.Operation

	for _, t := range transforms {
		src := filepath.Join(checkoutDir, t.Src)
		dst := filepath.Join(outputDir, t.Dst)
		dirTarget := paths.HasTrailingSeparator(t.Dst)

		if !within(checkoutDir, src) {
			return nil, errors.Newf(errors.ErrInvalidInput, "src %q leaves the repository", t.Src).
				WithDetail("src", t.Src)
		}
		if !within(outputDir, dst) {
			return nil, errors.Newf(errors.ErrInvalidInput, "dst %q leaves the output directory", t.Dst).
				WithDetail("dst", t.Dst)
		}

		if dirTarget {
			if err := fs.MkdirAll(dst, 0755); err != nil {
				return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", dst).
					WithDetail("path", dst)
			}
		}

		if IsGlob(t.Src) {
			matches, err := glob(fs, src)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid pattern %q", t.Src).
					WithDetail("src", t.Src)
			}
			if len(matches) == 0 {
				logger.Debug().Str("src", t.Src).Msg("Pattern matched nothing")
			}
			for _, match := range matches {
				info, err := lstat(fs, match)
				if err != nil {
					return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", match).
						WithDetail("path", match)
				}
				ops = append(ops, types.Operation{
					Type:   types.OperationCopy,
					Source: match,
					Target: target(match, dst, info.IsDir() || dirTarget),
				})
			}
			continue
		}

		// a direct source goes inside dst only when dst is a directory target
		if _, err := lstat(fs, src); err != nil {
			logger.Debug().Str("src", src).Msg("Source does not exist")
		}
		ops = append(ops, types.Operation{
			Type:   types.OperationReplace,
			Source: src,
			Target: target(src, dst, dirTarget),
		})
	}

	return ops, nil
}

func target(src, dst string, into bool) string {
	if into {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

// glob expands pattern, skipping dot files unless the pattern's last
// element asks for them
func glob(fs afero.Fs, pattern string) ([]string, error) {
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(filepath.Base(pattern), ".") {
		return matches, nil
	}

	visible := matches[:0]
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), ".") {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
