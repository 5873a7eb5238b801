package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/push"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/spf13/cobra"
)

// reportingChannel calls after for every event the handler applied.
type reportingChannel struct {
	ch    service.PushChannel
	after func(service.Event)
}

func (r reportingChannel) Run(ctx context.Context, handle service.EventHandler) error {
	return r.ch.Run(ctx, func(ctx context.Context, ev service.Event) error {
		if err := handle(ctx, ev); err != nil {
			return err
		}
		r.after(ev)
		return nil
	})
}

// newPushClient subscribes to the configured push endpoint.
func (o *rootOptions) newPushClient() (*push.Client, error) {
	return push.NewClient(o.cfg.PushURL, o.cfg.Retry)
}

func watchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live ledger updates",
		Long: `Subscribe to the service's push channel and print the balances every time
the ledger changes. Stops on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			handler := cli.NewInterruptHandler(out, "Stopped watching")
			ctx := handler.HandleInterrupts(cmd.Context())

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}
			pushClient, err := opts.newPushClient()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatTitle("Watching "+opts.cfg.PushURL))
			fmt.Fprintln(out, cli.RenderBalances(session.Cache.Balances()))

			ch := reportingChannel{ch: pushClient, after: func(ev service.Event) {
				printEvent(out, session, ev)
			}}
			err = session.Listen(ctx, ch)
			if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printEvent(out io.Writer, s *ledger.Session, ev service.Event) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatInfo(ev.Name))
	if ev.Name == service.EventTransactions {
		window := s.Cache.Window()
		fmt.Fprintln(out, cli.RenderTransactions(window[:min(5, len(window))], nil))
		return
	}
	fmt.Fprintln(out, cli.RenderBalances(s.Cache.Balances()))
}
