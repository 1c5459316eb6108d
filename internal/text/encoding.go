// Package text decodes source files into UTF-8 before tokenization.
package text

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedEncoding is returned for encoding names this package cannot decode.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Canonical encoding names.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingCP437       = "cp437"
	EncodingCP850       = "cp850"
	EncodingISO88591    = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
)

// Encodings lists the canonical names accepted by NewReader.
func Encodings() []string {
	return []string{
		EncodingUTF8,
		EncodingUTF16,
		EncodingCP437,
		EncodingCP850,
		EncodingISO88591,
		EncodingWindows1252,
	}
}

// NormalizeEncoding maps raw to a canonical encoding name.
// An empty value selects UTF-8.
func NormalizeEncoding(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "", "utf8", EncodingUTF8:
		return EncodingUTF8, nil
	case "utf16", EncodingUTF16:
		return EncodingUTF16, nil
	case EncodingCP437, "ibm437":
		return EncodingCP437, nil
	case EncodingCP850, "ibm850":
		return EncodingCP850, nil
	case EncodingISO88591, "latin1", "latin-1", "iso8859-1":
		return EncodingISO88591, nil
	case EncodingWindows1252, "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %s)", ErrUnsupportedEncoding, raw, strings.Join(Encodings(), "|"))
	}
}

// NewReader wraps r so that reads yield UTF-8 text decoded from enc.
// A leading byte order mark is dropped.
func NewReader(r io.Reader, enc string) (io.Reader, error) {
	name, err := NormalizeEncoding(enc)
	if err != nil {
		return nil, err
	}

	var decoder *encoding.Decoder
	switch name {
	case EncodingUTF8:
		decoder = unicode.UTF8BOM.NewDecoder()
	case EncodingUTF16:
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case EncodingCP437:
		decoder = charmap.CodePage437.NewDecoder()
	case EncodingCP850:
		decoder = charmap.CodePage850.NewDecoder()
	case EncodingISO88591:
		decoder = charmap.ISO8859_1.NewDecoder()
	case EncodingWindows1252:
		decoder = charmap.Windows1252.NewDecoder()
	}

	return transform.NewReader(r, decoder), nil
}
