package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeeli/allinpay/pkg/notify"
	"github.com/yeeli/allinpay/pkg/reliability"
	"github.com/yeeli/allinpay/pkg/transport"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Receive gateway notices on the configured HTTPS endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			server, err := a.newNotifyServer(ctx)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("notify endpoint listening", "listen", a.cfg.Notify.Listen, "path", a.cfg.Notify.Path)
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info("shutting down notify endpoint")
			return server.Shutdown(shutdownCtx)
		},
	}
}

// newNotifyServer builds the notice endpoint. Verified notices are logged.
func (a *app) newNotifyServer(ctx context.Context) (*transport.HTTPSServer, error) {
	client, err := a.newClient(ctx)
	if err != nil {
		return nil, err
	}
	https, err := a.cfg.NotifyHTTPS()
	if err != nil {
		return nil, err
	}

	handler, err := notify.NewHandler(notify.Config{
		Verifier: client.Verifier(),
		Signer:   client.Signer(),
		Codec:    client.Codec(),
		Receiver: notify.ReceiverFunc(func(_ context.Context, n *notify.Notice) error {
			a.logger.Info("notice",
				"serial", n.Serial,
				"trx_code", n.TrxCode,
				"ret_code", n.Result.RetCode(),
				"err_msg", n.Result.ErrMsg(),
			)
			return nil
		}),
		Tracker: reliability.NewExchangeTracker(a.cfg.Notify.DuplicateWindow),
		Journal: a.journal,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}
	return transport.NewHTTPSServer(a.cfg.Notify.Listen, a.cfg.Notify.Path, https, handler), nil
}
