package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/spf13/cobra"
)

func accountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, rename and delete the accounts transactions are booked against.`,
	}

	cmd.AddCommand(listAccountsCmd(opts))
	cmd.AddCommand(addAccountCmd(opts))
	cmd.AddCommand(renameAccountCmd(opts))
	cmd.AddCommand(deleteAccountCmd(opts))

	return cmd
}

func listAccountsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			accounts := session.Cache.Accounts()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No accounts found. Use 'ledger accounts add' to create one."))
				return nil
			}

			balances := session.Cache.Balances().Accounts
			for _, name := range accounts {
				fmt.Fprintf(out, "%s  %s\n", name, cli.Money(balances[name]))
			}
			return nil
		},
	}
}

func addAccountCmd(opts *rootOptions) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.CreateAccount(cmd.Context(), args[0], start); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Account %q added", args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "0", "starting balance")

	return cmd
}

func renameAccountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename an account and every transaction booked against it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.RenameAccount(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Account %q renamed to %q", args[0], args[1])))
			return nil
		},
	}
}

func deleteAccountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Account %q deleted", args[0])))
			return nil
		},
	}
}
