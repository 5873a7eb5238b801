package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func rulesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage auto-categorization rules",
		Long: `Rules assign a category to imported transactions whose comment matches
a pattern. They are stored and applied by the ledger service.`,
	}

	cmd.AddCommand(listRulesCmd(opts))
	cmd.AddCommand(saveRuleCmd(opts, "add"))
	cmd.AddCommand(saveRuleCmd(opts, "edit"))
	cmd.AddCommand(deleteRuleCmd(opts))

	return cmd
}

func (o *rootOptions) newRules() (*ledger.Rules, error) {
	client, err := o.newClient()
	if err != nil {
		return nil, err
	}
	return ledger.NewRules(client, nil), nil
}

func listRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := opts.newRules()
			if err != nil {
				return err
			}
			list, err := rules.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No rules found. Use 'ledger rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("NAME"),
				cli.TableHeaderStyle.Render("PATTERN"),
				cli.TableHeaderStyle.Render("CATEGORY"))
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.CommentPattern, r.Category)
			}
			if err := w.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write rules: %v\n", err)
			}
			return nil
		},
	}
}

func saveRuleCmd(opts *rootOptions, verb string) *cobra.Command {
	var rule model.AutoRule

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rule.ID = model.ID(args[0])
			}

			rules, err := opts.newRules()
			if err != nil {
				return err
			}
			if err := rules.Save(cmd.Context(), rule); err != nil {
				return err
			}

			msg := fmt.Sprintf("Rule %q added", rule.Name)
			if rule.ID != "" {
				msg = fmt.Sprintf("Rule %s updated", rule.ID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}
	if verb == "edit" {
		cmd.Use = "edit <id>"
		cmd.Short = "Replace a rule"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&rule.Name, "name", "", "rule name")
	cmd.Flags().StringVar(&rule.CommentPattern, "pattern", "", "comment pattern to match")
	cmd.Flags().StringVar(&rule.Category, "category", "", "category to assign")

	return cmd
}

func deleteRuleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := opts.newRules()
			if err != nil {
				return err
			}
			if err := rules.Delete(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %s deleted", args[0])))
			return nil
		},
	}
}
