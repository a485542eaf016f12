// Package cli wires the store lifecycle into a cobra command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// GlobalOptions are the persistent flags shared by every subcommand.
type GlobalOptions struct {
	// DataDir overrides the platform data directory holding the store file
	// and config.
	DataDir string

	JSON  bool
	Quiet bool
}

type commandDeps struct {
	out     io.Writer
	globals *GlobalOptions
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &GlobalOptions{}
	deps := commandDeps{out: out, globals: globals}

	cmd := &cobra.Command{
		Use:           "authpro",
		Short:         "AuthenticatorPro store management CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.PersistentFlags().StringVar(&globals.DataDir, "data-dir", "", "Override the data directory")
	cmd.PersistentFlags().BoolVar(&globals.JSON, "json", false, "Print machine-readable JSON output")
	cmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress non-error output")

	cmd.AddCommand(newVersionCommand(out, build))
	cmd.AddCommand(newDBCommand(deps))
	cmd.AddCommand(newEntryCommand(deps))
	cmd.AddCommand(newMigrateCommand(deps))
	cmd.AddCommand(newBackupCommand(deps))
	cmd.InitDefaultCompletionCmd()
	return cmd
}

func newVersionCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(build)
			}

			_, err := fmt.Fprintf(out, "version=%s commit=%s build_time=%s\n", build.Version, build.Commit, build.BuildTime)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version as JSON")
	return cmd
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func boolToState(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
