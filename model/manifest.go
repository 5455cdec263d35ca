package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	FormatImageTiff = "image/tiff"
	FormatTextPlain = "text/plain"
)

// Values is a IIIF property value. It accepts a plain string, a list of
// strings, a {"@value": ...} object or a list of those.
type Values []string

// UnmarshalJSON implements json.Unmarshaler for the IIIF value shapes.
func (v *Values) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Values{s}
		return nil
	case '{':
		s, err := languageValue(data)
		if err != nil {
			return err
		}
		*v = Values{s}
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(Values, 0, len(raw))
		for _, item := range raw {
			var inner Values
			if err := inner.UnmarshalJSON(item); err != nil {
				return err
			}
			out = append(out, inner...)
		}
		*v = out
		return nil
	default:
		// Numbers and booleans occasionally show up in metadata values.
		*v = Values{string(data)}
		return nil
	}
}

func languageValue(data []byte) (string, error) {
	var obj struct {
		Value json.RawMessage `json:"@value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", err
	}
	if len(obj.Value) == 0 {
		return "", fmt.Errorf("object value without @value: %s", string(data))
	}
	var s string
	if err := json.Unmarshal(obj.Value, &s); err != nil {
		return string(obj.Value), nil
	}
	return s, nil
}

// First returns the first value or an empty string.
func (v Values) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// String joins all values with "; ".
func (v Values) String() string {
	return strings.Join(v, "; ")
}

// MetadataEntry is one {label, value} pair of a manifest.
type MetadataEntry struct {
	Label Values `json:"label"`
	Value Values `json:"value"`
}

// Rendering is an alternate representation of a canvas.
type Rendering struct {
	ID     string `json:"@id"`
	Format string `json:"format"`
	Label  Values `json:"label,omitempty"`
}

// Canvas represents one physical page of a manifest.
type Canvas struct {
	ID        string      `json:"@id"`
	Label     Values      `json:"label,omitempty"`
	Rendering []Rendering `json:"rendering,omitempty"`
}

// Sequence is an ordered list of canvases.
type Sequence struct {
	Canvases []Canvas `json:"canvases"`
}

// Manifest is a typed IIIF presentation v2 manifest.
type Manifest struct {
	ManifestID string          `json:"@id"`
	Label      Values          `json:"label,omitempty"`
	Metadata   []MetadataEntry `json:"metadata,omitempty"`
	Sequences  []Sequence      `json:"sequences,omitempty"`

	canvases []Canvas
}

// ID returns the second to last path segment of the manifest @id.
// Manifests ending in ".../<uuid>/manifest" yield the uuid.
func (m *Manifest) ID() string {
	parts := strings.Split(m.ManifestID, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// Canvases returns the canvases of the first sequence. The slice is computed once.
func (m *Manifest) Canvases() []Canvas {
	if m.canvases == nil {
		m.canvases = []Canvas{}
		if len(m.Sequences) > 0 {
			m.canvases = append(m.canvases, m.Sequences[0].Canvases...)
		}
	}
	return m.canvases
}

// HasSequences reports whether the manifest carries any sequence.
func (m *Manifest) HasSequences() bool {
	return len(m.Sequences) > 0
}

// MetadataMap flattens the metadata entries. A label that occurs twice keeps the later value.
func (m *Manifest) MetadataMap() map[string]Values {
	out := make(map[string]Values, len(m.Metadata))
	for _, entry := range m.Metadata {
		label := entry.Label.First()
		if label == "" {
			continue
		}
		out[label] = entry.Value
	}
	return out
}

// MetadataLabels returns the distinct labels in first appearance order.
func (m *Manifest) MetadataLabels() []string {
	seen := map[string]bool{}
	labels := []string{}
	for _, entry := range m.Metadata {
		label := entry.Label.First()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// RenderingURI returns the @id of the first rendering with the given format.
func (c Canvas) RenderingURI(format string) (string, bool) {
	for _, r := range c.Rendering {
		if strings.EqualFold(r.Format, format) && r.ID != "" {
			return r.ID, true
		}
	}
	return "", false
}

// ImageURI returns the image/tiff rendering of the canvas.
func (c Canvas) ImageURI() (string, bool) {
	return c.RenderingURI(FormatImageTiff)
}

// TextURI returns the text/plain rendering of the canvas, if present.
func (c Canvas) TextURI() (string, bool) {
	return c.RenderingURI(FormatTextPlain)
}

// TrailingID returns the last path segment of the canvas @id.
func (c Canvas) TrailingID() string {
	return LastSegment(c.ID)
}

// ImageKey returns the last path segment of the image URI. It names the
// image and OCR cache files of the canvas.
func (c Canvas) ImageKey() string {
	uri, ok := c.ImageURI()
	if !ok {
		return ""
	}
	return LastSegment(uri)
}

// LastSegment returns everything after the final "/" of uri.
func LastSegment(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
