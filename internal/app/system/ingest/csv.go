package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseCSV reads rows from CSV with a header line. Columns are matched by
// name, case-insensitively and in any order: path, type, name, url, order.
// name and type are required; unknown columns are ignored. A blank or
// non-numeric order becomes 0.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, req := range []string{"name", "type"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("csv header is missing the %q column", req)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}

		row := Row{
			Path:  field(rec, "path"),
			Type:  field(rec, "type"),
			Name:  field(rec, "name"),
			URL:   field(rec, "url"),
			Order: coerceOrder(field(rec, "order")),
		}
		if row.Name == "" {
			return nil, fmt.Errorf("line %d: name is required", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseYAML reads rows from a YAML document that is either a list of rows
// or a mapping with a "rows" list.
func ParseYAML(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		var doc struct {
			Rows []Row `yaml:"rows"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse yaml: %w", err2)
		}
		rows = doc.Rows
	}
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			return nil, fmt.Errorf("row %d: name is required", i+1)
		}
	}
	return rows, nil
}

func coerceOrder(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Spreadsheets export whole numbers as "3.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(f)
	}
	return n
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
