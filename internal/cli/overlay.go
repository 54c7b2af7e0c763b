package cli

import (
	"github.com/arthur-debert/gilt/pkg/config"
	"github.com/arthur-debert/gilt/pkg/logging"
	"github.com/arthur-debert/gilt/pkg/overlay"
	"github.com/arthur-debert/gilt/pkg/ui"
	"github.com/spf13/cobra"
)

func newOverlayCmd(opts *rootOptions) *cobra.Command {
	var (
		manifest  string
		outputDir string
		cleanup   bool
		noCleanup bool
		baseDir   string
		isolate   bool
		dryRun    bool
		format    = ui.FormatAuto
	)

	cmd := &cobra.Command{
		Use:     "overlay",
		Short:   MsgOverlayShort,
		Long:    MsgOverlayLong,
		Example: MsgOverlayExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cli.overlay")

			renderer, err := ui.NewRenderer(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			overrides := map[string]interface{}{}
			if cmd.Flags().Changed("base-dir") {
				overrides["base_dir"] = baseDir
			}
			if cmd.Flags().Changed("isolate") {
				overrides["isolate"] = isolate
			}
			settings, err := opts.loadSettings(overrides)
			if err != nil {
				return err
			}

			cfg, err := config.Load(manifest, settings)
			if err != nil {
				return err
			}

			logger.Info().
				Str("manifest", manifest).
				Str("output_dir", outputDir).
				Int("overlays", len(cfg.Overlays)).
				Bool("dry_run", dryRun).
				Msg("Starting overlay")

			engine := overlay.New(cfg, overlay.Options{
				Cleanup: cleanup && !noCleanup,
				DryRun:  dryRun,
				Git:     opts.git,
			})
			result, runErr := engine.Overlay(cmd.Context(), outputDir)
			if result != nil {
				if err := renderer.RenderResult(result); err != nil {
					logger.Warn().Err(err).Msg("Failed to render result")
				}
				if dryRun && runErr == nil && !format.Structured() {
					_ = renderer.RenderMessage(MsgDryRunNotice)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&manifest, "config", "c", DefaultManifest, MsgFlagConfig)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", MsgFlagOutputDir)
	cmd.Flags().BoolVar(&cleanup, "cleanup", true, MsgFlagCleanup)
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, MsgFlagNoCleanup)
	cmd.Flags().StringVar(&baseDir, "base-dir", "", MsgFlagBaseDir)
	cmd.Flags().BoolVar(&isolate, "isolate", false, MsgFlagIsolate)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, MsgFlagDryRun)
	cmd.Flags().VarP(&format, "format", "f", MsgFlagFormat)
	cmd.MarkFlagsMutuallyExclusive("cleanup", "no-cleanup")

	return cmd
}
