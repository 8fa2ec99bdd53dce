package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeeli/allinpay/internal/storage"
	"github.com/yeeli/allinpay/pkg/gateway"
)

var errNoJournal = errors.New("no journal configured")

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded exchanges",
	}
	cmd.AddCommand(newJournalListCommand(), newJournalShowCommand())
	return cmd
}

func withJournal(cmd *cobra.Command, fn func(a *app, j storage.Journal) error) error {
	ctx := cmd.Context()
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j == nil {
		return errNoJournal
	}
	return fn(a, j)
}

func newJournalListCommand() *cobra.Command {
	var (
		filter storage.ExchangeFilter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			return withJournal(cmd, func(_ *app, j storage.Journal) error {
				records, err := j.ListExchanges(cmd.Context(), &filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, rec := range records {
					printf(out, "%s  %-20s %s %-8s %-4s %s\n",
						rec.StartedAt.Format(time.RFC3339), rec.Serial, rec.TrxCode,
						rec.Outcome, rec.RetCode, rec.Duration())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.TrxCode, "trx-code", "", "transaction code")
	cmd.Flags().StringVar((*string)(&filter.Direction), "direction", "", "direction: outbound or inbound")
	cmd.Flags().StringVar((*string)(&filter.Outcome), "outcome", "", "outcome: verified, rejected or failed")
	cmd.Flags().StringVar(&filter.RetCode, "ret-code", "", "gateway return code")
	cmd.Flags().DurationVar(&since, "since", 0, "only exchanges started within this duration")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of records")
	return cmd
}

func newJournalShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <serial>",
		Short: "Print the latest exchange for a serial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd, func(_ *app, j storage.Journal) error {
				rec, err := j.GetExchange(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRecord(cmd, rec)
				return nil
			})
		},
	}
}

func printRecord(cmd *cobra.Command, rec *gateway.ExchangeRecord) {
	out := cmd.OutOrStdout()
	printf(out, "serial:     %s\n", rec.Serial)
	printf(out, "trx_code:   %s\n", rec.TrxCode)
	printf(out, "direction:  %s\n", rec.Direction)
	printf(out, "url:        %s\n", rec.URL)
	printf(out, "outcome:    %s\n", rec.Outcome)
	printf(out, "status:     %d\n", rec.StatusCode)
	printf(out, "ret_code:   %s\n", rec.RetCode)
	printf(out, "err_msg:    %s\n", rec.ErrMsg)
	printf(out, "started_at: %s\n", rec.StartedAt.Format(time.RFC3339))
	printf(out, "duration:   %s\n", rec.Duration())
	if rec.Error != "" {
		printf(out, "error:      %s\n", rec.Error)
	}
}
