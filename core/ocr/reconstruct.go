package ocr

import (
	"strings"

	"github.com/siherrmann/inscriber/model"
)

// Keep reports whether a token survives filtering at threshold: its confidence
// must be set and strictly greater than threshold, and its text must not be blank.
func Keep(t model.Token, threshold int) bool {
	conf, ok := t.Confidence()
	if !ok || conf <= float64(threshold) {
		return false
	}
	return strings.TrimSpace(t.Text) != ""
}

// FilterTokens returns the tokens surviving threshold, in table order.
func FilterTokens(table model.TokenTable, threshold int) model.TokenTable {
	out := make(model.TokenTable, 0, len(table))
	for _, t := range table {
		if Keep(t, threshold) {
			out = append(out, t)
		}
	}
	return out
}

// ReconstructText joins the surviving tokens with single spaces and trims the result.
// The same table and threshold always yield the same string.
func ReconstructText(table model.TokenTable, threshold int) string {
	var sb strings.Builder
	for _, t := range table {
		if !Keep(t, threshold) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(t.Text))
	}
	return strings.TrimSpace(sb.String())
}

// ReconstructLines groups surviving tokens by page, block, paragraph and line
// and joins the lines with newlines.
func ReconstructLines(table model.TokenTable, threshold int) string {
	var lines []string
	var current strings.Builder
	var currentKey model.LineKey
	started := false

	for _, t := range table {
		if !Keep(t, threshold) {
			continue
		}
		key := t.Line()
		if started && key != currentKey {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(strings.TrimSpace(t.Text))
		currentKey = key
		started = true
	}
	if started {
		lines = append(lines, current.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
