package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/siherrmann/inscriber/helper"
)

// Metadata is the container level key/value map copied down to every page.
// It is stored as JSONB.
type Metadata map[string]interface{}

// NewMetadata converts flattened manifest metadata into Metadata.
// Single values are stored as strings, multiple values as string lists.
func NewMetadata(values map[string]Values) Metadata {
	m := make(Metadata, len(values))
	for label, v := range values {
		if len(v) == 1 {
			m[label] = v[0]
			continue
		}
		list := make([]string, len(v))
		copy(list, v)
		m[label] = list
	}
	return m
}

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the value of key as a string, joining lists with "; ".
func (m Metadata) String(key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return Values(v).String()
	case []interface{}:
		vals := make(Values, 0, len(v))
		for _, item := range v {
			vals = append(vals, fmt.Sprint(item))
		}
		return vals.String()
	default:
		return fmt.Sprint(v)
	}
}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes. Nil metadata marshals to "{}".
func (m Metadata) Marshal() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(m))
}

// Unmarshal converts JSON bytes, a JSON string or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case Metadata:
		*m = v
		return nil
	case []byte:
		return json.Unmarshal(v, (*map[string]interface{})(m))
	case string:
		return json.Unmarshal([]byte(v), (*map[string]interface{})(m))
	default:
		return helper.NewError("metadata scan", fmt.Errorf("unsupported type %T", value))
	}
}
