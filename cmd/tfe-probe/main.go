package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tfe-probe",
	Short: "Terraform Enterprise configuration-drift audit tool",
	Long: `tfe-probe audits a Terraform Enterprise organization without waiting for
the audit log: it walks each workspace's most recent run and, when two
configuration versions exist, downloads both archives and prints a diff of
the configuration content that changed between the previous and current run.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
