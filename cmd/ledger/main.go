package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// rootOptions carries the configuration shared by every command.
type rootOptions struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Client
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "📒 Personal finance ledger client",
		Long: `ledger: a command-line client for a personal finance ledger service.

Browse, filter and edit transactions, manage accounts, categories and
auto-categorization rules, follow live updates and export to SQLite.`,
		PersistentPreRunE: opts.initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: $HOME/.config/ledger/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "ledger service URL")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = opts.v.BindPFlag(config.KeyServerURL, rootCmd.PersistentFlags().Lookup("server"))
	_ = opts.v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = opts.v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(balancesCmd(opts))
	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(editCmd(opts))
	rootCmd.AddCommand(deleteCmd(opts))
	rootCmd.AddCommand(bulkDeleteCmd(opts))
	rootCmd.AddCommand(transferCmd(opts))
	rootCmd.AddCommand(accountsCmd(opts))
	rootCmd.AddCommand(categoriesCmd(opts))
	rootCmd.AddCommand(rulesCmd(opts))
	rootCmd.AddCommand(watchCmd(opts))
	rootCmd.AddCommand(browseCmd(opts))
	rootCmd.AddCommand(exportCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func (o *rootOptions) initConfig(_ *cobra.Command, _ []string) error {
	// .env files only fill variables that are not already set
	if err := config.LoadDotEnv(".env", "~/.config/ledger/.env"); err != nil {
		return err
	}

	config.SetDefaults(o.v)
	config.BindEnv(o.v)
	if err := config.ReadFile(o.v, o.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(o.v)
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}
	o.cfg = cfg

	// Set up logging
	if err := common.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// configuration is not needed to print the version
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger version %s\n", version)
		},
	}
}
