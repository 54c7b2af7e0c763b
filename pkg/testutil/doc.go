// Package testutil provides helpers for gilt tests.
//
// Key components:
//   - FakeGit: a scripted checkout source that writes fixed trees instead of
//     running git
//   - WriteTree / ReadTree: declare and inspect small directory trees on any
//     afero.Fs
//
// All test data should be defined inline, not in external files.
package testutil
