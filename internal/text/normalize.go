package text

import (
	"io"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NFCReader wraps r so that reads yield Unicode NFC text. Sources that spell
// an accented letter as base letter plus combining mark then tokenize the same
// as sources using the precomposed letter.
func NFCReader(r io.Reader) io.Reader {
	return transform.NewReader(r, norm.NFC)
}
