package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted store backups",
		Example: "  authpro backup export --out store.authpro --passphrase \"backup-pass\"\n" +
			"  authpro backup import --in store.authpro --passphrase \"backup-pass\"",
	}
	cmd.AddCommand(
		newBackupExportCommand(deps),
		newBackupImportCommand(deps),
	)
	return cmd
}

func newBackupExportCommand(deps commandDeps) *cobra.Command {
	var outPath, passphrase, secret string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the store as a passphrase-sealed backup",
		Example: "  authpro backup export --out store.authpro --passphrase \"backup-pass\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("backup export does not accept positional arguments")
			}
			if outPath == "" || passphrase == "" {
				return usageErrorf("backup export requires --out and --passphrase")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				if _, err := svcs.lifecycle.Open(ctx, secret); err != nil {
					return err
				}
				if err := svcs.backups.Export(ctx, outPath, []byte(passphrase)); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"path": outPath})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err := fmt.Fprintf(deps.out, "backup written to %s\n", outPath)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Backup file to write")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase sealing the backup")
	cmd.Flags().StringVar(&secret, "secret", "", "Store secret (empty for a plaintext store)")
	return cmd
}

func newBackupImportCommand(deps commandDeps) *cobra.Command {
	var inPath, passphrase, secret string

	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Restore the store from a backup",
		Example: "  authpro backup import --in store.authpro --passphrase \"backup-pass\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("backup import does not accept positional arguments")
			}
			if inPath == "" || passphrase == "" {
				return usageErrorf("backup import requires --in and --passphrase")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				if err := svcs.backups.Import(ctx, inPath, []byte(passphrase), secret); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"restored": true})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err := fmt.Fprintln(deps.out, "backup restored")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Backup file to read")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase sealing the backup")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret the backed-up store is keyed with")
	return cmd
}
