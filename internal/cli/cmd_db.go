package cli

import (
	"context"
	"fmt"

	"github.com/goafee/AuthenticatorPro/internal/config"
	"github.com/spf13/cobra"
)

func newDBCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Store lifecycle operations",
		Example: "  authpro db status\n" +
			"  authpro db encrypt --secret \"new-pass\"\n" +
			"  authpro db change-secret --old \"old-pass\" --new \"new-pass\"",
	}
	cmd.AddCommand(
		newDBStatusCommand(deps),
		newDBChangeSecretCommand(deps),
		newDBEncryptCommand(deps),
		newDBDecryptCommand(deps),
	)
	return cmd
}

func newDBStatusCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store file status",
		Example: "  authpro db status\n" +
			"  authpro --json db status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("db status does not accept positional arguments")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				paths := svcs.manager.Paths()
				exists := fileSize(paths.Primary) >= 0
				legacy := svcs.flags.GetBool(config.KeyLegacyEncryption, false)

				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{
						"path":              paths.Primary,
						"exists":            exists,
						"legacy_encryption": legacy,
					})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err := fmt.Fprintf(deps.out, "path=%s exists=%s legacy_encryption=%s\n",
					paths.Primary,
					boolToState(exists, "yes", "no"),
					boolToState(legacy, "yes", "no"),
				)
				return err
			})
		},
	}
}

func newDBChangeSecretCommand(deps commandDeps) *cobra.Command {
	var oldSecret, newSecret string

	cmd := &cobra.Command{
		Use:   "change-secret",
		Short: "Change the store secret",
		Example: "  authpro db change-secret --old \"old-pass\" --new \"new-pass\"\n" +
			"  authpro db change-secret --old \"old-pass\" --new \"\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("db change-secret does not accept positional arguments")
			}
			if !cmd.Flags().Changed("old") || !cmd.Flags().Changed("new") {
				return usageErrorf("db change-secret requires --old and --new")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				return runChangeSecret(ctx, deps, svcs, oldSecret, newSecret)
			})
		},
	}

	cmd.Flags().StringVar(&oldSecret, "old", "", "Current secret (empty for a plaintext store)")
	cmd.Flags().StringVar(&newSecret, "new", "", "New secret (empty to remove encryption)")
	return cmd
}

func newDBEncryptCommand(deps commandDeps) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:     "encrypt",
		Short:   "Encrypt a plaintext store",
		Example: "  authpro db encrypt --secret \"new-pass\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("db encrypt does not accept positional arguments")
			}
			if secret == "" {
				return usageErrorf("db encrypt requires a non-empty --secret")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				return runChangeSecret(ctx, deps, svcs, "", secret)
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Secret to encrypt the store with")
	return cmd
}

func newDBDecryptCommand(deps commandDeps) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:     "decrypt",
		Short:   "Remove encryption from the store",
		Example: "  authpro db decrypt --secret \"current-pass\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("db decrypt does not accept positional arguments")
			}
			if secret == "" {
				return usageErrorf("db decrypt requires a non-empty --secret")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				return runChangeSecret(ctx, deps, svcs, secret, "")
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Current store secret")
	return cmd
}

func runChangeSecret(ctx context.Context, deps commandDeps, svcs services, oldSecret, newSecret string) error {
	if _, err := svcs.lifecycle.Open(ctx, oldSecret); err != nil {
		return err
	}
	if err := svcs.lifecycle.ChangeSecret(ctx, oldSecret, newSecret); err != nil {
		return err
	}
	if deps.globals.JSON {
		return printJSON(deps.out, map[string]any{"encrypted": newSecret != ""})
	}
	if deps.globals.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(deps.out, "store is now %s\n", boolToState(newSecret != "", "encrypted", "plaintext"))
	return err
}
