package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "apiserver",
	Short: "Complaint tracking backend",
	Long: `Backend for the complaint tracking system: citizens lodge
complaints against departments, officers update them, admins assign
and report.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
