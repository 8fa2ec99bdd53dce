package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeeli/allinpay/internal/config"
	"github.com/yeeli/allinpay/internal/storage"
	"github.com/yeeli/allinpay/internal/storage/mongodb"
	"github.com/yeeli/allinpay/pkg/gateway"
	"github.com/yeeli/allinpay/pkg/reliability"
)

const (
	configFlag = "config"
	configEnv  = "ALLINPAY_CONFIG"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "allinpay",
		Short:         "Allinpay gateway client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP(configFlag, "c", defaultConfigPath(), "configuration file")

	root.AddCommand(
		newChargeCommand(),
		newVerifyCommand(),
		newJournalCommand(),
		newServeCommand(),
	)
	return root
}

func defaultConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return "allinpay.yaml"
}

// app bundles what the subcommands share.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	journal storage.Journal
	tracker *reliability.ExchangeTracker
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  cfg.NewLogger(cmd.ErrOrStderr()),
		tracker: reliability.NewExchangeTracker(0),
	}, nil
}

// openJournal connects the configured journal, or returns nil when none is configured.
func (a *app) openJournal(ctx context.Context) (storage.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	mc := a.cfg.Journal.MongoDB
	if !mc.Enabled() {
		return nil, nil
	}
	store, err := mongodb.NewStore(ctx, &mongodb.Config{
		URI:        mc.URI,
		Database:   mc.Database,
		Collection: mc.Collection,
		Timeout:    a.cfg.Gateway.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	a.journal = store
	return store, nil
}

func (a *app) newClient(ctx context.Context) (*gateway.Client, error) {
	cc := a.cfg.ClientConfig(a.logger)
	cc.Tracker = a.tracker

	journal, err := a.openJournal(ctx)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		cc.Journal = journal
	}
	return gateway.NewClient(cc)
}

func (a *app) close(ctx context.Context) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(ctx); err != nil {
		a.logger.Warn("closing journal", "error", err)
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
