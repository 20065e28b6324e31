package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/swish/internal/domain/clean"
	"github.com/tidwall/gjson"
)

const readBufferSize = 1 << 20

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) (clean.Table, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, readBufferSize))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return clean.Table{}, fmt.Errorf("read csv header: %w", clean.ErrMissingColumns)
		}
		return clean.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	// Excel exports prefix the first header with a byte order mark.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := clean.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return clean.Table{}, fmt.Errorf("read csv row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadJSONLines reads one JSON object per line. Blank lines are skipped and
// absent fields become missing values.
func ReadJSONLines(r io.Reader) (clean.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), readBufferSize)

	t := clean.Table{Columns: clean.EssentialColumns}
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) {
			return clean.Table{}, fmt.Errorf("read jsonl line %d: invalid json", line)
		}
		t.Rows = append(t.Rows, objectRow(gjson.Parse(text)))
	}
	if err := sc.Err(); err != nil {
		return clean.Table{}, fmt.Errorf("read jsonl: %w", err)
	}
	return t, nil
}

// ParseJSONRows reads a JSON array of shot objects, or an object whose
// "shots" field holds one.
func ParseJSONRows(data []byte) (clean.Table, error) {
	if !gjson.ValidBytes(data) {
		return clean.Table{}, errors.New("invalid json")
	}
	doc := gjson.ParseBytes(data)
	if doc.IsObject() {
		doc = doc.Get("shots")
	}
	if !doc.IsArray() {
		return clean.Table{}, errors.New("expected an array of shots")
	}

	t := clean.Table{Columns: clean.EssentialColumns}
	doc.ForEach(func(_, v gjson.Result) bool {
		t.Rows = append(t.Rows, objectRow(v))
		return true
	})
	return t, nil
}

// objectRow projects a JSON object onto the essential columns. snake_case
// aliases of the camelCase coordinates are accepted.
func objectRow(v gjson.Result) []string {
	row := make([]string, len(clean.EssentialColumns))
	for i, col := range clean.EssentialColumns {
		f := v.Get(col)
		if !f.Exists() {
			if alias, ok := fieldAliases[col]; ok {
				f = v.Get(alias)
			}
		}
		if f.Exists() && f.Type != gjson.Null {
			row[i] = f.String()
		}
	}
	return row
}

var fieldAliases = map[string]string{ //nolint:gochecknoglobals // fixed schema
	clean.ColShotX: "shot_x",
	clean.ColShotY: "shot_y",
}
