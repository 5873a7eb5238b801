package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func listCmd(opts *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		pages   int
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions, newest first. Filters apply to the loaded pages only;
use --pages or --all to load more of the ledger before filtering.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			state, err := filters.state()
			if err != nil {
				return err
			}

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}

			if all {
				pages = 0
			}
			if err := loadPages(ctx, session, pages); err != nil {
				return err
			}

			visible := session.Visible(state)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderTransactions(visible, nil))
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf(
				"%d shown, %d of %d loaded", len(visible), len(session.Cache.Window()), session.Cache.Total())))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	cmd.Flags().BoolVar(&all, "all", false, "load the whole ledger")

	return cmd
}

// draftFlags are the transaction fields accepted by add and edit.
type draftFlags struct {
	amount   string
	typ      string
	account  string
	category string
	date     string
	comment  string
}

func (d *draftFlags) register(cmd *cobra.Command, defaultType string) {
	cmd.Flags().StringVar(&d.amount, "amount", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&d.typ, "type", defaultType, "income or expense")
	cmd.Flags().StringVar(&d.account, "account", "", "account name")
	cmd.Flags().StringVar(&d.category, "category", "", `category, e.g. "Food: Cafe"`)
	cmd.Flags().StringVar(&d.date, "date", "", "date and time (default: now)")
	cmd.Flags().StringVar(&d.comment, "comment", "", "free-form comment")
}

func addCmd(opts *rootOptions) *cobra.Command {
	var d draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an income or expense",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			date, err := model.ParseDate(d.date)
			if err != nil {
				return err
			}

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}

			tx, err := session.Coordinator.Create(ctx, model.Draft{
				Amount:   d.amount,
				Type:     model.TransactionType(d.typ),
				Account:  d.account,
				Category: model.ParseCategory(d.category),
				Date:     date,
				Comment:  d.comment,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Transaction added"))
			fmt.Fprintln(out, cli.RenderTransactions([]model.Transaction{tx}, nil))
			return nil
		},
	}

	d.register(cmd, string(model.TypeExpense))
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func editCmd(opts *rootOptions) *cobra.Command {
	var d draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Long:  `Change fields of a transaction. Only the flags given are updated.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := model.ID(args[0])

			patch, err := d.patch(cmd)
			if err != nil {
				return err
			}

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}
			if _, err := findTransaction(ctx, session, id); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			updated, err := session.Coordinator.Update(ctx, id, patch)
			if err != nil {
				var mutErr *ledger.MutationError
				if errors.As(err, &mutErr) {
					// show the restored record next to the server's message
					if tx, ok := session.Cache.Lookup(id); ok {
						txs := []model.Transaction{tx}
						fmt.Fprintln(out, cli.RenderTransactions(txs, inlineErrors(session, txs)))
					}
				}
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess("Transaction updated"))
			fmt.Fprintln(out, cli.RenderTransactions([]model.Transaction{updated}, nil))
			return nil
		},
	}

	d.register(cmd, "")

	return cmd
}

// patch builds a partial update from the flags that were set.
func (d *draftFlags) patch(cmd *cobra.Command) (model.Patch, error) {
	var p model.Patch
	flags := cmd.Flags()

	if flags.Changed("amount") {
		p.Amount = d.amount
	}
	if flags.Changed("type") {
		p.Type = model.TransactionType(d.typ)
	}
	if flags.Changed("account") {
		p.Account = &d.account
	}
	if flags.Changed("category") {
		c := model.ParseCategory(d.category)
		p.Category = &c
	}
	if flags.Changed("comment") {
		p.Comment = &d.comment
	}
	if flags.Changed("date") {
		date, err := model.ParseDate(d.date)
		if err != nil {
			return model.Patch{}, err
		}
		p.Date = &date
	}

	if p == (model.Patch{}) {
		return model.Patch{}, fmt.Errorf("nothing to change: pass at least one of --amount, --type, --account, --category, --date, --comment")
	}
	return p, nil
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := model.ID(args[0])

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}
			tx, err := findTransaction(ctx, session, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintln(out, cli.RenderTransactions([]model.Transaction{tx}, nil))
				reader := cli.NewLineReader(cmd.InOrStdin(), out)
				if yes, err = reader.Confirm(ctx, "Delete this transaction?"); err != nil {
					return err
				}
				if !yes {
					fmt.Fprintln(out, cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := session.Coordinator.Remove(ctx, ledger.RemoveIntent{ID: id, Confirmed: yes}); err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Transaction %s deleted", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func bulkDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "bulk-delete <id>...",
		Short: "Delete several transactions at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ids := make([]model.ID, len(args))
			for i, a := range args {
				ids[i] = model.ID(a)
			}

			if !yes {
				reader := cli.NewLineReader(cmd.InOrStdin(), out)
				ok, err := reader.Confirm(ctx, fmt.Sprintf("Delete %d transactions (%s)?", len(ids), strings.Join(args, ", ")))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			session, err := opts.startSession(ctx, nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.BulkRemove(ctx, ids); err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d transactions deleted", len(ids))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func transferCmd(opts *rootOptions) *cobra.Command {
	var (
		amount  string
		from    string
		to      string
		date    string
		comment string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			when, err := model.ParseDate(date)
			if err != nil {
				return err
			}

			// transfers never touch the cache, so no initial load is needed
			session, err := opts.newSession(nil)
			if err != nil {
				return err
			}

			err = session.Coordinator.Transfer(ctx, model.TransferRequest{
				Amount:  amount,
				From:    from,
				To:      to,
				Date:    when,
				Comment: comment,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Transferred %s from %s to %s", amount, from, to)))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount to move")
	cmd.Flags().StringVar(&from, "from", "", "source account")
	cmd.Flags().StringVar(&to, "to", "", "destination account")
	cmd.Flags().StringVar(&date, "date", "", "date and time (default: now)")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form comment")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
