package ocr

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/siherrmann/inscriber/model"
)

// Columns is the header of a token table CSV.
var Columns = []string{
	"level", "page_num", "block_num", "par_num", "line_num", "word_num",
	"left", "top", "width", "height", "conf", "text",
}

// WriteTable writes table as CSV with the Columns header.
// A nil confidence is written as an empty cell.
func WriteTable(w io.Writer, table model.TokenTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, t := range table {
		conf := ""
		if t.Conf != nil {
			conf = strconv.FormatFloat(*t.Conf, 'f', -1, 64)
		}
		record := []string{
			strconv.Itoa(t.Level),
			strconv.Itoa(t.PageNum),
			strconv.Itoa(t.BlockNum),
			strconv.Itoa(t.ParNum),
			strconv.Itoa(t.LineNum),
			strconv.Itoa(t.WordNum),
			strconv.Itoa(t.Left),
			strconv.Itoa(t.Top),
			strconv.Itoa(t.Width),
			strconv.Itoa(t.Height),
			conf,
			t.Text,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeTable returns the CSV encoding of table.
func EncodeTable(table model.TokenTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadTable parses a token table CSV. Columns are matched by name, so
// reordered columns and a leading unnamed index column are accepted.
// Only the text column is required.
func ReadTable(r io.Reader) (model.TokenTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return model.TokenTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name != "" {
			index[name] = i
		}
	}
	if _, ok := index["text"]; !ok {
		return nil, fmt.Errorf("missing text column in header %v", header)
	}

	table := model.TokenTable{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var t model.Token
		ints := []struct {
			col string
			dst *int
		}{
			{"level", &t.Level}, {"page_num", &t.PageNum}, {"block_num", &t.BlockNum},
			{"par_num", &t.ParNum}, {"line_num", &t.LineNum}, {"word_num", &t.WordNum},
			{"left", &t.Left}, {"top", &t.Top}, {"width", &t.Width}, {"height", &t.Height},
		}
		for _, f := range ints {
			v, err := intField(record, index, f.col)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			*f.dst = v
		}

		if s := field(record, index, "conf"); s != "" && !strings.EqualFold(s, "nan") {
			c, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: conf %q: %w", line, s, err)
			}
			t.Conf = &c
		}
		// Token text is kept verbatim; Keep and the reconstructors trim it.
		t.Text = rawField(record, index, "text")

		table = append(table, t)
	}
	return table, nil
}

func field(record []string, index map[string]int, col string) string {
	return strings.TrimSpace(rawField(record, index, col))
}

func rawField(record []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// intField parses an integer column. Missing columns and empty cells are 0;
// pandas float notation such as "3.0" is accepted.
func intField(record []string, index map[string]int, col string) (int, error) {
	s := field(record, index, col)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", col, s, err)
	}
	return int(f), nil
}
