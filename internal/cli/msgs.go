package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Overlay files from pinned git repositories"
	MsgOverlayShort    = "Install the overlays listed in a manifest"
	MsgValidateShort   = "Check a manifest and print it with defaults resolved"
	MsgSettingsShort   = "Print the effective settings"
	MsgManifestShort   = "Describe the manifest format"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgVersionFormat = "gilt version %s\n  commit: %s\n  built:  %s\n"
	MsgDryRunNotice  = "DRY RUN MODE - the output directory was not changed"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagSettings  = "Settings file (default $XDG_CONFIG_HOME/gilt/config.yml)"
	MsgFlagConfig    = "Manifest file"
	MsgFlagOutputDir = "Directory the overlays are copied into"
	MsgFlagCleanup   = "Remove checkouts when the run ends"
	MsgFlagNoCleanup = "Keep checkouts when the run ends"
	MsgFlagBaseDir   = "Working directory for checkouts and the lock file"
	MsgFlagIsolate   = "Use a private working directory for this run"
	MsgFlagDryRun    = "Check out and resolve, but do not copy anything"
	MsgFlagFormat    = "Output format: auto, term, text or json"
	MsgFlagEncoding  = "Settings encoding: yaml or toml"

	// Default values
	DefaultManifest = "gilt.yml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/overlay-long.txt
	msgOverlayLongRaw string
	MsgOverlayLong    = strings.TrimSpace(msgOverlayLongRaw)

	//go:embed msgs/overlay-example.txt
	msgOverlayExampleRaw string
	MsgOverlayExample    = strings.TrimRight(msgOverlayExampleRaw, "\n")

	//go:embed msgs/manifest.md
	MsgManifestDoc string
)
