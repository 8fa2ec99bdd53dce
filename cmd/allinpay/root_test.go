package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeeli/allinpay/internal/config"
	"github.com/yeeli/allinpay/internal/keystore"
	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/gatewaytest"
	"github.com/yeeli/allinpay/pkg/security"
	"github.com/yeeli/allinpay/pkg/transport"
)

var testdata = filepath.Join("..", "..", "internal", "keystore", "testdata")

// fixtureProvider uses the single fixture key pair for both parties.
func fixtureProvider(t *testing.T) *security.KeyProvider {
	t.Helper()
	priv, err := keystore.LoadPrivateKey(filepath.Join(testdata, "merchant.pfx"), "111111")
	require.NoError(t, err)
	pub, err := keystore.LoadPublicKey(filepath.Join(testdata, "merchant.cer"))
	require.NoError(t, err)
	p, err := security.NewProvider(priv.Signer, pub.Key)
	require.NoError(t, err)
	return p
}

func writeConfig(t *testing.T, url string) string {
	t.Helper()
	abs, err := filepath.Abs(testdata)
	require.NoError(t, err)

	yaml := fmt.Sprintf(`environment: test
gateway:
  url: %s
  timeout: 10s
credential:
  privateKeyPath: %s
  privateKeyPassword: "111111"
  publicKeyPath: %s
logging:
  level: error
`, url, filepath.Join(abs, "merchant.pfx"), filepath.Join(abs, "merchant.cer"))

	path := filepath.Join(t.TempDir(), "allinpay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCharge(t *testing.T) {
	p := fixtureProvider(t)
	server := gatewaytest.NewServer(gatewaytest.Config{MerchantVerifier: p, GatewaySigner: p})
	defer server.Close()
	cfg := writeConfig(t, server.URL)

	out, err := run(t, nil, "charge", "--config", cfg, "--serial", "cli-1", "--summary", "top up", "6222000000000000", "100.00")
	require.NoError(t, err)
	assert.Contains(t, out, "serial:   cli-1")
	assert.Contains(t, out, "ret_code: 0000")
	assert.Contains(t, out, "err_msg:  "+gatewaytest.MsgOK)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, string(reqs[0]), "<SUMMARY>top up</SUMMARY>")
}

func TestCharge_JSON(t *testing.T) {
	p := fixtureProvider(t)
	server := gatewaytest.NewServer(gatewaytest.Config{MerchantVerifier: p, GatewaySigner: p})
	defer server.Close()

	out, err := run(t, nil, "charge", "-c", writeConfig(t, server.URL), "--json", "6222000000000000", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"RET_CODE": "0000"`)
	assert.Contains(t, out, `"CHARGEREQ"`)
}

func TestCharge_InvalidAmount(t *testing.T) {
	_, err := run(t, nil, "charge", "-c", writeConfig(t, "https://127.0.0.1:1/aipg/ProcessServlet"), "6222000000000000", "1.234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestCharge_MissingArgs(t *testing.T) {
	_, err := run(t, nil, "charge", "6222000000000000")
	assert.Error(t, err)
}

func TestCharge_MissingConfig(t *testing.T) {
	_, err := run(t, nil, "charge", "-c", filepath.Join(t.TempDir(), "none.yaml"), "6222000000000000", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestVerify(t *testing.T) {
	p := fixtureProvider(t)
	cfg := writeConfig(t, "https://127.0.0.1:1/aipg/ProcessServlet")

	notice := document.New(document.TagRoot)
	notice.Section(document.TagInfo).Set(document.TagTrxCode, "200001").Set(document.TagReqSN, "n-1")
	raw, err := gatewaytest.Sign(context.Background(), p, codec.New(), notice)
	require.NoError(t, err)

	out, err := run(t, raw, "verify", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "valid: trx_code=200001 serial=n-1\n", out)

	file := filepath.Join(t.TempDir(), "notice.xml")
	require.NoError(t, os.WriteFile(file, raw, 0o600))
	_, err = run(t, nil, "verify", "-c", cfg, file)
	require.NoError(t, err)

	tampered := bytes.Replace(raw, []byte("n-1"), []byte("n-2"), 1)
	out, err = run(t, tampered, "verify", "-c", cfg, "-")
	assert.ErrorIs(t, err, errInvalidSignature)
	assert.True(t, strings.HasPrefix(out, "invalid: "))
}

func TestJournal_NotConfigured(t *testing.T) {
	cfg := writeConfig(t, "https://127.0.0.1:1/aipg/ProcessServlet")
	_, err := run(t, nil, "journal", "list", "-c", cfg)
	assert.ErrorIs(t, err, errNoJournal)
	_, err = run(t, nil, "journal", "show", "-c", cfg, "sn-1")
	assert.ErrorIs(t, err, errNoJournal)
}

func TestNotifyServer(t *testing.T) {
	p := fixtureProvider(t)
	cfg, err := config.Load(writeConfig(t, "https://127.0.0.1:1/aipg/ProcessServlet"))
	require.NoError(t, err)

	a := &app{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	server, err := a.newNotifyServer(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	doc := document.New(document.TagRoot)
	doc.Section(document.TagInfo).Set(document.TagTrxCode, "200001").Set(document.TagReqSN, "n-1")
	raw, err := gatewaytest.Sign(context.Background(), p, codec.New(), doc)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+cfg.Notify.Path, transport.ContentTypeXMLWire, bytes.NewReader(raw))
	require.NoError(t, err)
	ack, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(ack), "<REQ_SN>n-1</REQ_SN>")
	assert.Contains(t, string(ack), "<SIGNED_MSG>")
}
