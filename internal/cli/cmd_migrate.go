package cli

import (
	"context"
	"fmt"

	"github.com/goafee/AuthenticatorPro/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "One-shot store migrations",
		Example: "  authpro migrate legacy",
	}
	cmd.AddCommand(newMigrateLegacyCommand(deps))
	return cmd
}

func newMigrateLegacyCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "legacy",
		Short: "Strip the legacy encryption scheme from the store",
		Long: "Checks the legacy encryption flag and, when set, rewrites the store\n" +
			"without the legacy scheme using the secret held in the OS keychain.\n" +
			"Running it with the flag clear is a no-op.",
		Example: "  authpro migrate legacy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("migrate legacy does not accept positional arguments")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				wasSet := svcs.flags.GetBool(config.KeyLegacyEncryption, false)
				if err := svcs.lifecycle.RunLegacyMigration(ctx); err != nil {
					return err
				}
				migrated := wasSet && !svcs.flags.GetBool(config.KeyLegacyEncryption, false)

				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"migrated": migrated})
				}
				if deps.globals.Quiet {
					return nil
				}
				if migrated {
					_, err := fmt.Fprintln(deps.out, "legacy encryption removed")
					return err
				}
				_, err := fmt.Fprintln(deps.out, "nothing to migrate")
				return err
			})
		},
	}
}
