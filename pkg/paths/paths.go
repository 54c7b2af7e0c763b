package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files. These define the on-disk layout of the
// base directory and are shared by every gilt process on the machine.
const (
	// BaseDirName is the hidden directory under the user's home
	BaseDirName = ".gilt"

	// AppDirName is the directory name used below XDG roots
	AppDirName = "gilt"

	// LockFileName is the interprocess lock marker inside the base directory
	LockFileName = "lock"

	// CloneDirName is the checkout staging directory inside the base directory
	CloneDirName = "clone"

	// DefaultManifest is the manifest file read when none is given
	DefaultManifest = "gilt.yml"
)

// SettingsFileNames lists the settings file names looked up in ConfigDir, in order
var SettingsFileNames = []string{"config.yml", "config.yaml", "config.toml"}

// DefaultBaseDir returns ~/.gilt
func DefaultBaseDir() string {
	home := xdg.Home
	if home == "" {
		home = userHome()
	}
	return filepath.Join(home, BaseDirName)
}

// LockFile returns the lock file path for a base directory
func LockFile(baseDir string) string {
	return filepath.Join(baseDir, LockFileName)
}

// CloneDir returns the clone staging directory for a base directory
func CloneDir(baseDir string) string {
	return filepath.Join(baseDir, CloneDirName)
}

// ConfigDir returns $XDG_CONFIG_HOME/gilt
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// SettingsFile returns the first existing settings file in ConfigDir, or ""
func SettingsFile() string {
	dir := ConfigDir()
	for _, name := range SettingsFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir := userHome()
	if homeDir == "" {
		// Can't expand, return as-is
		return path
	}

	if len(path) == 1 {
		return homeDir
	}

	// Only ~/ is expanded; ~user forms are left alone
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// HasTrailingSeparator reports whether path names a directory target
func HasTrailingSeparator(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))
}

func userHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv(EnvHome)
	}
	return homeDir
}
