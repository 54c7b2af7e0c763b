// Package paths provides centralized path handling for gilt.
//
// It resolves the user-scoped working directory that holds gilt's shared
// state and the locations of the settings file, following the XDG Base
// Directory specification where one applies:
//
//   - Base directory: ~/.gilt (lock file and clone staging)
//   - Settings: $XDG_CONFIG_HOME/gilt/config.{yml,yaml,toml}
//
// # Layout
//
//	~/.gilt/
//	  lock     empty marker used for interprocess mutual exclusion
//	  clone/   per-run checkout staging, removed when a run finishes
//
// # Usage
//
//	base := paths.DefaultBaseDir()          // /home/user/.gilt
//	lock := paths.LockFile(base)            // /home/user/.gilt/lock
//	clone := paths.CloneDir(base)           // /home/user/.gilt/clone
//	dir := paths.ExpandHome("~/work/.gilt") // /home/user/work/.gilt
package paths
