// Package overlay runs a gilt manifest: for each overlay, check out the
// repository, resolve its file transforms and copy the results into the
// output directory.
//
// A run moves through these states:
//
//	INIT -> ENVIRONMENT_READY -> LOCK_ACQUIRED
//	     -> (CHECKOUT -> TRANSFORM -> MATERIALIZE) per overlay
//	     -> LOCK_RELEASED -> CLEANED_UP -> COMPLETED | ABORTED
//
// The interprocess lock is held for the whole overlay loop. Overlays are
// processed strictly in manifest order, one at a time, and the first error
// aborts the run. Cancellation arrives through the context: the engine
// checks it between overlays and operations, git subprocesses are killed
// with it, and a run waiting for the lock gives up. The finalizer runs on
// every path, so the clone directory is removed and the lock released
// before Overlay returns.
package overlay
