package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ml4/tfe-probe/pkg/config"
	"github.com/ml4/tfe-probe/pkg/report"
	"github.com/ml4/tfe-probe/pkg/tfe"
)

const optionsFile = ".tfe-probe.yml"

var (
	reportOrg     string
	reportQuiet   bool
	reportDebug   bool
	reportWorkDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Audit an organization's workspaces for configuration drift",
	Long: `Run one read-only audit pass over every workspace in the organization.
Connection settings come from the environment: TFE_ADDR, TFE_TOKEN and
TFE_CACERT are all required. The audit is strictly sequential and uses a
fixed working area, so only one instance may run on a host at a time.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOrg, "org", "o", "", "organization to audit (required)")
	reportCmd.Flags().BoolVarP(&reportQuiet, "quiet", "q", false, "hide decorative output")
	reportCmd.Flags().BoolVarP(&reportDebug, "debug", "d", false, "trace outbound calls and raw payloads")
	reportCmd.Flags().StringVar(&reportWorkDir, "work-dir", "", "root directory for the scratch staging areas")
	reportCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	opts, err := config.LoadOptions(optionsFile)
	if err != nil {
		return err
	}
	// Flags override the options file.
	if cmd.Flags().Changed("quiet") {
		opts.Quiet = reportQuiet
	}
	if cmd.Flags().Changed("debug") {
		opts.Debug = reportDebug
	}
	if cmd.Flags().Changed("work-dir") {
		opts.WorkDir = reportWorkDir
	}

	logger := newLogger(opts.Debug)

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	client, err := tfe.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	driver := report.New(client, cfg, opts, logger, cmd.OutOrStdout())
	return driver.Run(cmd.Context(), reportOrg)
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
