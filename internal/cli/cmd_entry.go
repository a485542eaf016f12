package cli

import (
	"context"
	"fmt"

	"github.com/goafee/AuthenticatorPro/internal/database"
	"github.com/spf13/cobra"
)

func newEntryCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Stored authenticator entries",
		Example: "  authpro entry list\n" +
			"  authpro entry add --issuer GitHub --otp-secret JBSWY3DPEHPK3PXP",
	}
	cmd.AddCommand(
		newEntryListCommand(deps),
		newEntryAddCommand(deps),
		newEntryRemoveCommand(deps),
	)
	return cmd
}

func newEntryListCommand(deps commandDeps) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored entries",
		Example: "  authpro entry list\n" +
			"  authpro --json entry list --secret \"store-pass\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("entry list does not accept positional arguments")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				handle, err := svcs.lifecycle.Open(ctx, secret)
				if err != nil {
					return err
				}
				entries, err := handle.Entries.List(ctx)
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					type listedEntry struct {
						ID       string `json:"id"`
						Issuer   string `json:"issuer"`
						Username string `json:"username,omitempty"`
						Type     string `json:"type"`
					}
					out := make([]listedEntry, 0, len(entries))
					for _, entry := range entries {
						out = append(out, listedEntry{
							ID:       entry.ID,
							Issuer:   entry.Issuer,
							Username: entry.Username,
							Type:     string(entry.Type),
						})
					}
					return printJSON(deps.out, out)
				}
				if deps.globals.Quiet {
					return nil
				}
				for _, entry := range entries {
					if _, err := fmt.Fprintf(deps.out, "%s\t%s\t%s\t%s\n",
						entry.ID, entry.Issuer, entry.Username, entry.Type); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Store secret (empty for a plaintext store)")
	return cmd
}

func newEntryAddCommand(deps commandDeps) *cobra.Command {
	var (
		secret    string
		entryType string
		issuer    string
		username  string
		otpSecret string
		algorithm string
		digits    int
		period    int
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an entry",
		Example: "  authpro entry add --issuer GitHub --otp-secret JBSWY3DPEHPK3PXP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("entry add does not accept positional arguments")
			}
			if issuer == "" || otpSecret == "" {
				return usageErrorf("entry add requires --issuer and --otp-secret")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				handle, err := svcs.lifecycle.Open(ctx, secret)
				if err != nil {
					return err
				}
				entry := &database.Entry{
					Issuer:    issuer,
					Username:  username,
					Type:      database.EntryType(entryType),
					Algorithm: algorithm,
					Digits:    digits,
					Period:    period,
					Secret:    otpSecret,
				}
				if err := handle.Entries.Create(ctx, entry); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"id": entry.ID})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintln(deps.out, entry.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Store secret (empty for a plaintext store)")
	cmd.Flags().StringVar(&entryType, "type", "totp", "Entry type: totp or hotp")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer name")
	cmd.Flags().StringVar(&username, "username", "", "Account username")
	cmd.Flags().StringVar(&otpSecret, "otp-secret", "", "Base32 OTP seed")
	cmd.Flags().StringVar(&algorithm, "algorithm", "SHA1", "HMAC algorithm")
	cmd.Flags().IntVar(&digits, "digits", 6, "Code length")
	cmd.Flags().IntVar(&period, "period", 30, "TOTP period in seconds")
	return cmd
}

func newEntryRemoveCommand(deps commandDeps) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove an entry",
		Example: "  authpro entry remove 6c1f...",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("entry remove requires exactly one entry id")
			}
			return withServices(cmd.Context(), deps, func(ctx context.Context, svcs services) error {
				handle, err := svcs.lifecycle.Open(ctx, secret)
				if err != nil {
					return err
				}
				if err := handle.Entries.Delete(ctx, args[0]); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]any{"removed": args[0]})
				}
				if deps.globals.Quiet {
					return nil
				}
				_, err = fmt.Fprintln(deps.out, "entry removed")
				return err
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Store secret (empty for a plaintext store)")
	return cmd
}
