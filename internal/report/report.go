// Package report renders processor results for the CLI and HTTP server.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/example/go-textfreq/internal/frequency"
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for a format outside Formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatTable, FormatJSON, FormatYAML}
}

// NormalizeFormat canonicalizes a user-supplied format name. The empty string
// selects text.
func NormalizeFormat(raw string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(raw))
	switch f {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFormat, raw, strings.Join(Formats(), ", "))
	}
}

// Row is one rendered frequency entry.
type Row struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// FromEntries renders the keys of a frequency result with their String form.
func FromEntries[K comparable](entries []frequency.Entry[K]) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{Key: fmt.Sprint(e.Key), Count: e.Count}
	}
	return rows
}

// Report is a frequency result ready for output.
//
// Total and Distinct describe the full result even after Truncate.
type Report struct {
	ID       string `json:"id" yaml:"id"`
	Op       string `json:"op" yaml:"op"`
	Source   string `json:"source" yaml:"source"`
	Total    int    `json:"total" yaml:"total"`
	Distinct int    `json:"distinct" yaml:"distinct"`
	Entries  []Row  `json:"entries" yaml:"entries"`
}

// New builds a report with a fresh run ID.
func New(op, source string, rows []Row) Report {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if rows == nil {
		rows = []Row{}
	}
	return Report{
		ID:       uuid.NewString(),
		Op:       op,
		Source:   source,
		Total:    total,
		Distinct: len(rows),
		Entries:  rows,
	}
}

// Truncate keeps the first n entries. n <= 0 keeps them all.
func (r Report) Truncate(n int) Report {
	if n > 0 && n < len(r.Entries) {
		r.Entries = r.Entries[:n]
	}
	return r
}

// Write renders rep to w in the given format.
func Write(w io.Writer, format string, rep Report) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatYAML:
		return writeYAML(w, rep)
	case FormatTable:
		return writeTable(w, rep)
	default:
		sb := &strings.Builder{}
		for _, e := range rep.Entries {
			fmt.Fprintf(sb, "%s - %d\n", e.Key, e.Count)
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}
}

func writeTable(w io.Writer, rep Report) error {
	keyWidth := len("Key")
	for _, e := range rep.Entries {
		if n := utf8.RuneCountInString(e.Key); n > keyWidth {
			keyWidth = n
		}
	}
	rule := strings.Repeat("-", 6+2+keyWidth+2+8)

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%-6s  %s  %8s\n", "Rank", pad("Key", keyWidth), "Count")
	fmt.Fprintln(sb, rule)
	for i, e := range rep.Entries {
		fmt.Fprintf(sb, "%-6d  %s  %8d\n", i+1, pad(e.Key, keyWidth), e.Count)
	}
	fmt.Fprintln(sb, rule)
	fmt.Fprintf(sb, "%-6s  %s  %8d  (total)\n", "", pad("", keyWidth), rep.Total)
	fmt.Fprintf(sb, "%-6s  %s  %8d  (distinct)\n", "", pad("", keyWidth), rep.Distinct)

	_, err := io.WriteString(w, sb.String())
	return err
}

// pad right-pads s with spaces to width runes; %-*s counts bytes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// TokenList is a token sequence ready for output.
type TokenList struct {
	ID     string   `json:"id" yaml:"id"`
	Op     string   `json:"op" yaml:"op"`
	Source string   `json:"source" yaml:"source"`
	Total  int      `json:"total" yaml:"total"`
	Tokens []string `json:"tokens" yaml:"tokens"`
}

// NewTokenList builds a token list with a fresh run ID.
func NewTokenList(op, source string, tokens []string) TokenList {
	if tokens == nil {
		tokens = []string{}
	}
	return TokenList{
		ID:     uuid.NewString(),
		Op:     op,
		Source: source,
		Total:  len(tokens),
		Tokens: tokens,
	}
}

// WriteTokens renders list to w. The text and table formats print one token
// per line followed by the token count.
func WriteTokens(w io.Writer, format string, list TokenList) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, list)
	case FormatYAML:
		return writeYAML(w, list)
	case FormatTable:
		sb := &strings.Builder{}
		fmt.Fprintf(sb, "%-8s  %s\n", "Index", "Token")
		fmt.Fprintln(sb, strings.Repeat("-", 24))
		for i, tok := range list.Tokens {
			fmt.Fprintf(sb, "%-8d  %s\n", i, tok)
		}
		fmt.Fprintln(sb, strings.Repeat("-", 24))
		fmt.Fprintf(sb, "Total number of tokens: %d\n", list.Total)
		_, err := io.WriteString(w, sb.String())
		return err
	default:
		sb := &strings.Builder{}
		for _, tok := range list.Tokens {
			sb.WriteString(tok)
			sb.WriteByte('\n')
		}
		fmt.Fprintf(sb, "\nTotal number of tokens: %d\n", list.Total)
		_, err := io.WriteString(w, sb.String())
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
