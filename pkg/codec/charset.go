package codec

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/yeeli/allinpay/pkg/gwerr"
)

// WireCharset is the character set name declared in every document.
const WireCharset = "GBK"

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// UnsupportedRuneError reports a character with no GBK representation.
type UnsupportedRuneError struct {
	Rune   rune
	Offset int
}

func (e *UnsupportedRuneError) Error() string {
	return fmt.Sprintf("character %q (U+%04X) at byte offset %d cannot be represented in %s",
		e.Rune, e.Rune, e.Offset, WireCharset)
}

// MalformedInputError reports bytes that do not decode as GBK.
type MalformedInputError struct {
	Offset int
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s input near decoded offset %d", WireCharset, e.Offset)
}

// ToWire transcodes UTF-8 text to GBK bytes.
func ToWire(text []byte) ([]byte, error) {
	if !utf8.Valid(text) {
		return nil, gwerr.Encoding("transcode to "+WireCharset, errInvalidUTF8)
	}
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes(text)
	if err != nil {
		if rerr := locateUnsupported(text); rerr != nil {
			err = rerr
		}
		return nil, gwerr.Encoding("transcode to "+WireCharset, err)
	}
	return out, nil
}

// FromWire transcodes GBK bytes to UTF-8 text.
func FromWire(raw []byte) ([]byte, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, gwerr.Encoding("transcode from "+WireCharset, err)
	}
	// U+FFFD has no GBK code point, so it only appears as the decoder's
	// replacement for invalid input.
	if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
		return nil, gwerr.Encoding("transcode from "+WireCharset, &MalformedInputError{Offset: i})
	}
	return out, nil
}

func locateUnsupported(text []byte) error {
	enc := simplifiedchinese.GBK.NewEncoder()
	for i, r := range string(text) {
		if r < utf8.RuneSelf {
			continue
		}
		if _, err := enc.String(string(r)); err != nil {
			return &UnsupportedRuneError{Rune: r, Offset: i}
		}
	}
	return nil
}
