package main

import (
	"context"
	"errors"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd(opts *rootOptions) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the ledger interactively",
		Long: `Open a full-screen browser over the ledger. Pages load as you scroll,
filters and search apply instantly, and live updates from the service are
shown as they arrive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			alerts := make(chan ledger.Alert, 16)
			session, err := opts.newSession(tui.AlertSink(alerts))
			if err != nil {
				return err
			}

			if live {
				pushClient, err := opts.newPushClient()
				if err != nil {
					return err
				}
				go func() {
					err := session.Listen(ctx, pushClient)
					if err != nil && !errors.Is(err, context.Canceled) {
						common.LogWarn("Live updates stopped", common.Fields{"error": err.Error()})
					}
				}()
			}

			return tui.Run(ctx, session, alerts)
		},
	}

	cmd.Flags().BoolVar(&live, "live", true, "follow live updates from the service")

	return cmd
}
