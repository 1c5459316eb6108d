package text

import (
	"io"
	"strings"
	"testing"
)

func TestNFCReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii unchanged", "plain text", "plain text"},
		{"precomposed unchanged", "café", "café"},
		{"combining acute composed", "cafe\u0301", "caf\u00e9"},
		{"combining diaeresis composed", "nai\u0308ve", "na\u00efve"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := io.ReadAll(NFCReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if got := string(out); got != tt.want {
				t.Errorf("NFCReader(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNFCReader_AfterDecoding(t *testing.T) {
	r, err := NewReader(strings.NewReader("\xef\xbb\xbfe\u0301t\u00e9"), EncodingUTF8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	out, err := io.ReadAll(NFCReader(r))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if got := string(out); got != "\u00e9t\u00e9" {
		t.Errorf("got %q; want %q", got, "\u00e9t\u00e9")
	}
}
