package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envgate"
	"github.com/vivaneiona/envgate/schemafile"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "List the variables declared in the schema file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath, _ := cmd.Flags().GetString("schema")
		return runDescribe(schemaPath, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(schemaPath string, out io.Writer) error {
	f, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}
	opts, err := f.Options()
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGROUP\tTYPE\tDEFAULT\tFLAGS\tDESCRIPTION")
	for _, s := range envgate.Describe(opts) {
		var flags []string
		if s.Required {
			flags = append(flags, "required")
		}
		if s.Secret {
			flags = append(flags, "secret")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Name, s.Group, s.Type, s.Default, strings.Join(flags, ","), s.Description)
	}
	return w.Flush()
}
