package cli

import (
	"fmt"

	"github.com/arthur-debert/gilt/internal/version"
	"github.com/arthur-debert/gilt/pkg/config"
	"github.com/arthur-debert/gilt/pkg/errors"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/overlay"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Exit statuses returned by ExitCode
const (
	ExitOK          = errors.ExitOK
	ExitFailure     = errors.ExitFailure
	ExitInterrupted = errors.ExitInterrupted
)

// rootOptions are shared by every subcommand
type rootOptions struct {
	verbosity    int
	settingsFile string

	// git stages checkouts for the overlay command; the git executable when nil
	git overlay.Checkouter
}

// loadSettings loads settings honouring --settings, then applies overrides
func (o *rootOptions) loadSettings(overrides map[string]interface{}) (*config.Settings, error) {
	return config.LoadSettings(config.SettingsOptions{
		File:      o.settingsFile,
		Overrides: overrides,
	})
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gilt",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.settingsFile, "settings", "", MsgFlagSettings)

	rootCmd.AddCommand(newOverlayCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newSettingsCmd(opts))
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// ExitCode maps an error returned by the root command to a process exit status
func ExitCode(err error) int {
	return errors.ExitStatus(err)
}
