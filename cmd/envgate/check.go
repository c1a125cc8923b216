package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envgate"
	"github.com/vivaneiona/envgate/schemafile"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the environment against the schema file",
	Long: `Validates the process environment, overlaid on the given .env files, in server
context (every variable) or client context (client and shared variables only).
Every invalid variable is reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath, _ := cmd.Flags().GetString("schema")
		envFiles, _ := cmd.Flags().GetStringSlice("env")
		client, _ := cmd.Flags().GetBool("client")
		show, _ := cmd.Flags().GetBool("show")

		return runCheck(checkOptions{
			schemaPath: schemaPath,
			envFiles:   envFiles,
			client:     client,
			show:       show,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	checkCmd.Flags().StringSliceP("env", "e", nil, "Dotenv files to load, later files override earlier ones")
	checkCmd.Flags().Bool("client", false, "Validate in client context")
	checkCmd.Flags().Bool("show", false, "Print the validated values with secrets masked")
	rootCmd.AddCommand(checkCmd)
}

type checkOptions struct {
	schemaPath string
	envFiles   []string
	client     bool
	show       bool
}

func runCheck(opts checkOptions, out, errOut io.Writer) error {
	f, err := schemafile.Load(opts.schemaPath)
	if err != nil {
		return err
	}
	envOpts, err := f.Options()
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	raw := envgate.FromProcess()
	if len(opts.envFiles) > 0 {
		dotenv, err := envgate.FromDotenv(opts.envFiles...)
		if err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
		raw = envgate.Overlay(dotenv, raw)
	}

	envOpts.RuntimeEnv = raw
	envOpts.IsServer = envgate.BoolPtr(!opts.client)
	envOpts.Logger = slog.New(slog.NewTextHandler(errOut, nil))

	env, err := envgate.Create(envOpts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Environment is valid in %s context ✅\n", env.Context())
	if opts.show {
		fmt.Fprintln(out, env.PrettyString())
	}
	return nil
}
