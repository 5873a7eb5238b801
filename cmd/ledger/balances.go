package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/spf13/cobra"
)

func balancesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Show the global, account and category balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBalances(session.Cache.Balances()))
			return nil
		},
	}
}
