package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		out     string
		pages   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions and balances to SQLite",
		Long: `Load the ledger, apply the filters and write the matching transactions
and the current balances to a SQLite database. Existing rows with the same id
are replaced; every export is recorded in the exports table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			handler := cli.NewInterruptHandler(w, "Export interrupted, nothing was committed")
			ctx := handler.HandleInterrupts(cmd.Context())

			state, err := filters.state()
			if err != nil {
				return err
			}

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}
			if err := loadPages(ctx, session, pages); err != nil {
				return err
			}
			txs := session.Visible(state)

			store, err := storage.Open(ctx, config.ExpandPath(out))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := cli.NewProgress(cmd.ErrOrStderr(), len(txs), "Exporting transactions...")
			err = store.SaveTransactions(ctx, txs, func(n int) { _ = bar.Set(n) })
			if err != nil {
				return err
			}
			if err := store.SaveBalances(ctx, session.Cache.Balances()); err != nil {
				return err
			}
			err = store.RecordRun(ctx, storage.Run{
				ExportedAt: time.Now(),
				ServerURL:  opts.cfg.ServerURL,
				Filter:     filters.describe(),
				Rows:       len(txs),
			})
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d transactions\n%s", len(txs), store.Path())
			fmt.Fprintln(w, cli.RenderBox(cli.SuccessIcon+" Export complete", summary))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "~/.local/share/ledger/export.db", "SQLite database to write")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of pages to load (0 loads the whole ledger)")

	return cmd
}
