package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeeli/allinpay/pkg/response"
	"github.com/yeeli/allinpay/pkg/security"
)

var errInvalidSignature = errors.New("signature invalid")

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Verify a gateway-signed document read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			var raw []byte
			if len(args) == 0 || args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			cc := a.cfg.ClientConfig(a.logger)
			provider, err := security.NewKeyProvider(cc.Credential, cc.ProviderOptions...)
			if err != nil {
				return err
			}

			v, err := response.NewVerifier(provider, response.WithCodec(cc.Codec)).Check(cmd.Context(), raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !v.Valid {
				printf(out, "invalid: %s\n", v.Reason)
				return errInvalidSignature
			}
			trxCode, _ := v.Result.Value("INFO/TRX_CODE")
			printf(out, "valid: trx_code=%s serial=%s\n", trxCode, v.Result.Serial())
			return nil
		},
	}
}
