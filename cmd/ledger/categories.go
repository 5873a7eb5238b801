package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long: `List, add, rename and delete categories. Subcategories are written
"Parent: Name". The Transfer category is reserved.`,
	}

	cmd.AddCommand(listCategoriesCmd(opts))
	cmd.AddCommand(addCategoryCmd(opts))
	cmd.AddCommand(renameCategoryCmd(opts))
	cmd.AddCommand(deleteCategoryCmd(opts))

	return cmd
}

func listCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			categories := model.SortCategories(session.Cache.Categories())
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'ledger categories add' to create one."))
				return nil
			}

			balances := session.Cache.Balances().Categories
			for _, c := range categories {
				label := c.String()
				if c.Parent != "" {
					label = "  " + c.Label()
				}
				fmt.Fprintf(out, "%s  %s\n", label, cli.Money(balances[c.String()]))
			}
			return nil
		},
	}
}

func addCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.CreateCategory(cmd.Context(), model.ParseCategory(args[0])); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Category %q added", args[0])))
			return nil
		},
	}
}

func renameCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a category and every transaction filed under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			err = session.Coordinator.RenameCategory(cmd.Context(), model.ParseCategory(args[0]), model.ParseCategory(args[1]))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Category %q renamed to %q", args[0], args[1])))
			return nil
		},
	}
}

func deleteCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.startSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := session.Coordinator.DeleteCategory(cmd.Context(), model.ParseCategory(args[0])); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Category %q deleted", args[0])))
			return nil
		},
	}
}
