package cli

import (
	"fmt"
	"text/tabwriter"

	"glance/internal/application"
	"glance/internal/config"

	"github.com/spf13/cobra"
)

func accountsCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage GitHub accounts",
	}
	cmd.AddCommand(accountsListCmd(cfg))
	cmd.AddCommand(accountsAddCmd(cfg))
	cmd.AddCommand(accountsRevalidateCmd(cfg))
	cmd.AddCommand(accountsRemoveCmd(cfg))
	return cmd
}

func accountsListCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts without their tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSER\tAPI\tENABLED\tSTATUS")
			for _, i := range a.accounts.List() {
				if i.GitHub == nil {
					continue
				}
				status := "ok"
				if i.GitHub.ValidationError != "" {
					status = i.GitHub.ValidationError
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
					i.ID, i.Name, i.GitHub.Username, i.GitHub.APIBaseURL, i.Enabled, status)
			}
			return tw.Flush()
		},
	}
}

func accountsAddCmd(cfg config.Config) *cobra.Command {
	var input application.GitHubAccountInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate a token against GitHub and store the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.accounts.AddGitHubAccount(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: added %s as @%s\n", account.ID, account.GitHub.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "Account label, e.g. Work")
	cmd.Flags().StringVar(&input.Token, "token", "", "Personal access token")
	cmd.Flags().StringVar(&input.APIBaseURL, "api-url", "", "GitHub Enterprise API URL (default public GitHub)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func accountsRevalidateCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "revalidate <id>",
		Short: "Re-check a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.accounts.RevalidateAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s is valid as @%s\n", account.ID, account.GitHub.Username)
			return nil
		},
	}
}

func accountsRemoveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.accounts.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: removed %s\n", args[0])
			return nil
		},
	}
}
