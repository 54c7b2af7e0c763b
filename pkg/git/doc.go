// Package git fetches a repository at a pinned version into a staging
// directory.
//
// Client is the thin wrapper around the git executable. Every call names
// the directory it runs in, so nothing here changes the process working
// directory. Repository builds the checkout sequence on top of a Client:
// clone into a private temporary directory, fetch, check out the version,
// clean, fast-forward branches, then copy the tree to
// <destination>/<name>-<short revision>.
package git
