package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "envgate",
	Short: "envgate checks environment variables against a schema file",
	Long: `envgate validates the process environment (and optional .env files) against
the server, client and shared variables declared in a YAML schema file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("schema", "s", "env.yaml", "Path to the schema file")
}
