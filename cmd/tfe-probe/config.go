package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ml4/tfe-probe/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tfe-probe options file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Generate a default options file",
	Long: `Generate a commented default options file. If no file is specified,
creates ` + optionsFile + ` in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an options file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	outputFile := optionsFile
	if len(args) > 0 {
		outputFile = args[0]
	}

	if err := config.WriteDefaultOptions(outputFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Options file created: %s\n", outputFile)
	fmt.Fprintf(cmd.OutOrStdout(), "Use it with: tfe-probe report --org <org>\n")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("options file %s: %w", args[0], err)
	}

	opts, err := config.LoadOptions(args[0])
	if err != nil {
		return fmt.Errorf("options validation failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Options file is valid\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Quiet: %t\n", opts.Quiet)
	fmt.Fprintf(cmd.OutOrStdout(), "  Debug: %t\n", opts.Debug)
	fmt.Fprintf(cmd.OutOrStdout(), "  Work dir: %s\n", opts.WorkDir)
	return nil
}
