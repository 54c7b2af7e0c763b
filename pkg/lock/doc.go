// Package lock provides the interprocess lock that serializes gilt runs
// sharing a base directory.
//
// The lock is an exclusive flock(2) on a marker file. The kernel drops it
// when the holder exits, so a crashed run never leaves a stale lock behind.
// The marker file itself is never removed.
//
// flock needs a real file descriptor, so FileLock always opens the marker
// through the operating system and never through an afero.Fs. Callers that
// stage their working tree on another filesystem still lock on the host;
// the overlay engine creates the lock directory through its own Fs first
// so both views agree the directory exists.
package lock
