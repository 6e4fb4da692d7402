package vfs

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts source bytes into UTF-8 text. Byte order mark wins over
// charset, empty charset means UTF-8. Invalid UTF-8 sequences are replaced
// with U+FFFD.
func Decode(data []byte, charset string) (string, error) {
	if bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("unable to decode source: %w", err)
		}
		return string(out), nil
	}

	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		if utf8.Valid(data) {
			return string(data), nil
		}
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return "", fmt.Errorf("unknown source encoding %q: %w", charset, err)
	}
	if enc == nil {
		return "", fmt.Errorf("unsupported source encoding %q", charset)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("unable to decode source as %s: %w", charset, err)
	}
	return string(out), nil
}
