package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeeli/allinpay/pkg/document"
)

func TestStripSignature(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "hex signature",
			raw:  `<AIPG><INFO><REQ_SN>1</REQ_SN><SIGNED_MSG>00ab</SIGNED_MSG></INFO></AIPG>`,
			want: `<AIPG><INFO><REQ_SN>1</REQ_SN></INFO></AIPG>`,
		},
		{
			name: "empty signature",
			raw:  `<AIPG><INFO><SIGNED_MSG></SIGNED_MSG></INFO></AIPG>`,
			want: `<AIPG><INFO></INFO></AIPG>`,
		},
		{
			name: "no signature",
			raw:  `<AIPG><INFO><REQ_SN>1</REQ_SN></INFO></AIPG>`,
			want: `<AIPG><INFO><REQ_SN>1</REQ_SN></INFO></AIPG>`,
		},
		{
			name: "whitespace kept",
			raw:  "<AIPG>\n  <INFO>\n    <SIGNED_MSG>ff</SIGNED_MSG>\n  </INFO>\n</AIPG>",
			want: "<AIPG>\n  <INFO>\n    \n  </INFO>\n</AIPG>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripSignature([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestStripSignature_KeepsGBK(t *testing.T) {
	text := []byte("<AIPG><INFO><ERR_MSG>处理成功</ERR_MSG><SIGNED_MSG>ab</SIGNED_MSG></INFO></AIPG>")
	raw, err := ToWire(text)
	require.NoError(t, err)

	got, err := StripSignature(raw)
	require.NoError(t, err)

	want, err := ToWire([]byte("<AIPG><INFO><ERR_MSG>处理成功</ERR_MSG></INFO></AIPG>"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSigningInput_MatchesStrippedEncoding(t *testing.T) {
	for _, indent := range []int{Compact, 0, 2, 4} {
		c := New(WithIndent(indent))
		doc := chargeDocument()

		input, err := c.SigningInput(doc)
		require.NoError(t, err)
		assert.NotContains(t, string(input), document.TagSignature)

		signed := doc.Clone()
		signed.Section(document.TagInfo).Set(document.TagSignature, "0123abcd")
		raw, err := c.Encode(signed)
		require.NoError(t, err)

		stripped, err := StripSignature(raw)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(input, stripped), "indent %d", indent)
	}
}

func TestSigningInput_CompactEqualsUnsignedEncoding(t *testing.T) {
	c := New()
	doc := chargeDocument()

	input, err := c.SigningInput(doc)
	require.NoError(t, err)
	plain, err := c.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, plain, input)
	assert.Nil(t, doc.Find("INFO/SIGNED_MSG"), "doc must not be modified")
}

func TestSigningInput_ReplacesExistingSignature(t *testing.T) {
	c := New()
	doc := chargeDocument()
	unsignedInput, err := c.SigningInput(doc)
	require.NoError(t, err)

	doc.Section(document.TagInfo).Set(document.TagSignature, "feed")
	input, err := c.SigningInput(doc)
	require.NoError(t, err)
	assert.Equal(t, unsignedInput, input)
}

func TestCountSignatures(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want int
	}{
		"none":       {"<AIPG><INFO></INFO></AIPG>", 0},
		"one":        {"<AIPG><INFO><SIGNED_MSG>ab</SIGNED_MSG></INFO></AIPG>", 1},
		"empty":      {"<AIPG><INFO><SIGNED_MSG></SIGNED_MSG></INFO></AIPG>", 1},
		"two":        {"<AIPG><INFO><SIGNED_MSG>ab</SIGNED_MSG></INFO><X><SIGNED_MSG>cd</SIGNED_MSG></X></AIPG>", 2},
		"in comment": {"<AIPG><INFO><SIGNED_MSG>ab</SIGNED_MSG></INFO><!--<SIGNED_MSG>cd</SIGNED_MSG>--></AIPG>", 2},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := CountSignatures([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := CountSignatures([]byte("<AIPG>\xff</AIPG>"))
	require.Error(t, err)
}
