package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/yeeli/allinpay/pkg/account"
)

func newChargeCommand() *cobra.Command {
	var (
		businessCode string
		summary      string
		remark       string
		serial       string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "charge <bank-account> <amount>",
		Short: "Charge a bank account into the merchant account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}

			opts := []account.ChargeOption{account.WithBusinessCode(businessCode)}
			if summary != "" {
				opts = append(opts, account.WithSummary(summary))
			}
			if remark != "" {
				opts = append(opts, account.WithRemark(remark))
			}
			if serial != "" {
				opts = append(opts, account.WithSerial(serial))
			}

			result, err := account.NewService(client).Charge(ctx, args[0], args[1], opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Map())
			}
			printf(out, "serial:   %s\n", result.Serial())
			printf(out, "ret_code: %s\n", result.RetCode())
			printf(out, "err_msg:  %s\n", result.ErrMsg())
			return nil
		},
	}

	cmd.Flags().StringVar(&businessCode, "business-code", account.DefaultBusinessCode, "business code")
	cmd.Flags().StringVar(&summary, "summary", "", "summary field")
	cmd.Flags().StringVar(&remark, "remark", "", "remark field")
	cmd.Flags().StringVar(&serial, "serial", "", "request serial (generated when empty)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole reply as JSON")
	return cmd
}
