// Package filesystem copies checkout content into the output directory.
//
// All access goes through an afero.Fs so the copier runs against the real
// filesystem in production and an in-memory one in tests. Symlinks are
// recreated, never followed, on filesystems that support them.
package filesystem
