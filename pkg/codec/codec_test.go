package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/gwerr"
)

func chargeDocument() *document.Node {
	root := document.New(document.TagRoot)
	root.Section(document.TagInfo).
		Set(document.TagTrxCode, "300006").
		Set(document.TagReqSN, "0123456789abcdef0123456789abcdef").
		Set(document.TagReqTime, "20240101120000").
		Set(document.TagLevel, "9")
	root.Section("CHARGEREQ").
		Set(document.TagBusinessCode, "100005").
		Set("BANKACCT", "6222000000000").
		Set("AMOUNT", "100.00")
	return root
}

func TestEncode_CompactCanonicalForm(t *testing.T) {
	doc := document.New(document.TagRoot)
	doc.Section(document.TagInfo).Set(document.TagTrxCode, "300006").Set(document.TagSignature, "")

	raw, err := New().Encode(doc)
	require.NoError(t, err)

	expected := `<?xml version="1.0" encoding="GBK"?>` +
		`<AIPG><INFO><TRX_CODE>300006</TRX_CODE><SIGNED_MSG></SIGNED_MSG></INFO></AIPG>`
	assert.Equal(t, expected, string(raw))
}

func TestEncode_Deterministic(t *testing.T) {
	for _, indent := range []int{Compact, 0, 2} {
		c := New(WithIndent(indent))
		doc := chargeDocument()

		first, err := c.Encode(doc)
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			again, err := c.Encode(doc)
			require.NoError(t, err)
			require.Equal(t, first, again, "indent %d run %d", indent, i)
		}
		assert.True(t, doc.Equal(chargeDocument()), "encode must not modify the document")
	}
}

func TestEncode_FieldNamesVerbatim(t *testing.T) {
	doc := document.New("AIPG")
	doc.Section("Mixed_Case").Set("lower_name", "1").Set("UPPER-NAME", "2")

	raw, err := New().Encode(doc)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "<Mixed_Case><lower_name>1</lower_name><UPPER-NAME>2</UPPER-NAME></Mixed_Case>")
	assert.NotContains(t, string(raw), "type=")
}

func TestEncode_Indented(t *testing.T) {
	raw, err := New(WithIndent(2)).Encode(chargeDocument())
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, "\n  <INFO>\n    <TRX_CODE>300006</TRX_CODE>")
	assert.Contains(t, text, "\n  <CHARGEREQ>")

	zero, err := New(WithIndent(0)).Encode(chargeDocument())
	require.NoError(t, err)
	assert.Contains(t, string(zero), "\n<INFO>\n<TRX_CODE>300006</TRX_CODE>")
}

func TestWithIndent_NegativeMeansCompact(t *testing.T) {
	assert.Equal(t, Compact, New().Indent())
	assert.Equal(t, Compact, New(WithIndent(-7)).Indent())
	assert.Equal(t, 4, New(WithIndent(4)).Indent())
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  *document.Node
	}{
		{"charge", chargeDocument()},
		{"chinese text", func() *document.Node {
			d := chargeDocument()
			d.Section("CHARGEREQ").Set("SUMMARY", "网银交易备注").Set("REMARK", "商户交易备注")
			return d
		}()},
		{"escaped characters", func() *document.Node {
			d := chargeDocument()
			d.Section("CHARGEREQ").Set("REMARK", `a<b & "c" 'd'>`)
			return d
		}()},
		{"carriage return and tab", func() *document.Node {
			d := chargeDocument()
			d.Section("CHARGEREQ").Set("SUMMARY", "line1\r\nline2").Set("REMARK", "a\tb\rc")
			return d
		}()},
		{"empty value", func() *document.Node {
			d := chargeDocument()
			d.Section(document.TagInfo).Set(document.TagSignature, "")
			return d
		}()},
	}

	for _, tt := range tests {
		for _, indent := range []int{Compact, 0, 2} {
			c := New(WithIndent(indent))
			raw, err := c.Encode(tt.doc)
			require.NoError(t, err, tt.name)

			decoded, err := c.Decode(raw)
			require.NoError(t, err, tt.name)
			assert.True(t, tt.doc.Equal(decoded), "%s (indent %d) did not round-trip", tt.name, indent)
		}
	}
}

func TestEncode_CarriageReturnEscaped(t *testing.T) {
	doc := chargeDocument()
	doc.Section("CHARGEREQ").Set("SUMMARY", "line1\r\nline2")

	raw, err := New().Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<SUMMARY>line1&#xD;\nline2</SUMMARY>")
	assert.NotContains(t, string(raw), "\r")
}

func TestEncode_IllegalXMLCharacter(t *testing.T) {
	tests := map[string]string{
		"control character": "x\x01y",
		"nul":               "\x00",
		"invalid utf-8":     "ab\xffcd",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			doc := chargeDocument()
			doc.Section("CHARGEREQ").Set("REMARK", value)

			_, err := New().Encode(doc)
			require.ErrorIs(t, err, gwerr.ErrEncoding)
			assert.Contains(t, err.Error(), "field REMARK")

			var rerr *UnsupportedRuneError
			assert.False(t, errors.As(err, &rerr), "no substituted character may be reported")
		})
	}

	doc := chargeDocument()
	doc.Section("CHARGEREQ").Set("REMARK", "x\x01y")
	_, err := New().Encode(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid character '\x01' in field REMARK`)
}

func TestEncode_TranscodesToGBK(t *testing.T) {
	doc := document.New(document.TagRoot)
	doc.Set("SUMMARY", "充值")

	raw, err := New().Encode(doc)
	require.NoError(t, err)

	gbk, err := simplifiedchinese.GBK.NewEncoder().String("充值")
	require.NoError(t, err)
	assert.True(t, bytes.Contains(raw, []byte(gbk)))
	assert.False(t, bytes.Contains(raw, []byte("充值")), "UTF-8 bytes must not reach the wire")
}

func TestEncode_UnsupportedCharacter(t *testing.T) {
	doc := chargeDocument()
	doc.Section("CHARGEREQ").Set("REMARK", "ok 😀")

	_, err := New().Encode(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, gwerr.ErrEncoding)

	var rerr *UnsupportedRuneError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, '😀', rerr.Rune)
}

func TestEncode_InvalidInput(t *testing.T) {
	_, err := New().Encode(nil)
	assert.ErrorIs(t, err, gwerr.ErrEncoding)

	bad := document.New(document.TagRoot)
	bad.Set("1BAD", "x")
	_, err = New().Encode(bad)
	assert.ErrorIs(t, err, gwerr.ErrEncoding)

	_, err = ToWire([]byte{'a', 0xff})
	assert.ErrorIs(t, err, gwerr.ErrEncoding)
}

func TestDecode_MalformedBytes(t *testing.T) {
	raw := []byte("<?xml version=\"1.0\" encoding=\"GBK\"?><AIPG><A>\xff</A></AIPG>")

	_, err := New().Decode(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, gwerr.ErrEncoding)

	var merr *MalformedInputError
	assert.True(t, errors.As(err, &merr))
}

func TestDecode_InvalidXML(t *testing.T) {
	_, err := New().Decode([]byte("<AIPG><INFO></AIPG>"))
	assert.ErrorIs(t, err, gwerr.ErrEncoding)

	_, err = New().Decode([]byte(""))
	assert.ErrorIs(t, err, gwerr.ErrEncoding)
}

func TestDecode_GBKDeclaration(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(
		`<?xml version="1.0" encoding="GBK"?><AIPG><INFO><ERR_MSG>处理成功</ERR_MSG></INFO></AIPG>`)
	require.NoError(t, err)

	doc, err := New().Decode([]byte(gbk))
	require.NoError(t, err)

	msg, ok := doc.Value("INFO/ERR_MSG")
	assert.True(t, ok)
	assert.Equal(t, "处理成功", msg)
}

func TestDecode_IgnoresWhitespaceBetweenElements(t *testing.T) {
	raw := []byte("<AIPG>\n  <INFO>\n    <RET_CODE>0000</RET_CODE>\n  </INFO>\n</AIPG>\n")

	doc, err := New().Decode(raw)
	require.NoError(t, err)

	info := doc.Child(document.TagInfo)
	require.NotNil(t, info)
	require.Len(t, info.Children, 1)
	assert.Equal(t, "0000", info.Children[0].Text)
}

func TestCharsetRoundTrip(t *testing.T) {
	text := []byte("通联支付 Allinpay 123，账户充值")

	wire, err := ToWire(text)
	require.NoError(t, err)

	back, err := FromWire(wire)
	require.NoError(t, err)
	assert.Equal(t, text, back)
}
