package export

import (
	"fmt"
	"strings"
)

// Format identifies an export artifact.
type Format string

const (
	FormatTxt   Format = "txt"
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatTTL   Format = "ttl"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name        Format
	MIMEType    string
	Extension   string
	Description string
	// NeedsNLP is set for formats derived from the annotated document.
	NeedsNLP bool
	// NeedsTable is set for formats written from the raw OCR token table
	// instead of the page text.
	NeedsTable bool
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTxt: {
		Name:        FormatTxt,
		MIMEType:    "text/plain",
		Extension:   ".txt",
		Description: "Reconstructed page text",
	},
	FormatCSV: {
		Name:        FormatCSV,
		MIMEType:    "text/csv",
		Extension:   ".csv",
		Description: "Unfiltered OCR token table",
		NeedsTable:  true,
	},
	FormatJSONL: {
		Name:        FormatJSONL,
		MIMEType:    "application/jsonl",
		Extension:   ".jsonl",
		Description: "One JSON object per sentence with container metadata",
		NeedsNLP:    true,
	},
	FormatTTL: {
		Name:        FormatTTL,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Inscription graph in Turtle",
		NeedsNLP:    true,
	},
}

// AllFormats returns every format in dump order.
func AllFormats() []Format {
	return []Format{FormatTxt, FormatCSV, FormatJSONL, FormatTTL}
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormats converts format names, ignoring case and a leading dot.
// An empty list yields all formats.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return AllFormats(), nil
	}
	out := make([]Format, 0, len(names))
	seen := map[Format]bool{}
	for _, name := range names {
		f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "."))
		if _, ok := FormatRegistry[f]; !ok {
			return nil, fmt.Errorf("unsupported export format: %q", name)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FileName returns the file name of a page artifact.
func FileName(pageID string, format Format) string {
	return pageID + FormatRegistry[format].Extension
}
