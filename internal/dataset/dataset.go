// Package dataset reads numeric input files and formats clustering results.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformed is returned for rows that are not comma-separated numbers of a consistent width.
var ErrMalformed = errors.New("dataset: malformed input")

// Table is a keyed set of rows: Keys[i] is the first column of row i and
// Rows[i] the remaining columns.
type Table struct {
	Keys []float64
	Rows [][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Dim returns the row width, or 0 for an empty table.
func (t *Table) Dim() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// ReadFile loads a keyed table. Files ending in .txt are split per line on
// commas; anything else is parsed as headerless CSV.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records [][]string
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		records, err = splitLines(f)
	} else {
		r := csv.NewReader(f)
		r.TrimLeadingSpace = true
		records, err = r.ReadAll()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rows, err := parseRecords(records)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t := &Table{Keys: make([]float64, len(rows)), Rows: make([][]float64, len(rows))}
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("parse %s: %w: row %d has no coordinates", path, ErrMalformed, i)
		}
		t.Keys[i] = row[0]
		t.Rows[i] = row[1:]
	}
	return t, nil
}

// ReadRows reads unkeyed comma-separated rows. The first row fixes the width.
func ReadRows(r io.Reader) ([][]float64, error) {
	records, err := splitLines(r)
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

// InnerJoin keeps the keys present in both tables. Joined rows hold a's
// columns followed by b's and are ordered by ascending key; a key repeated in
// either table yields every pairing.
func InnerJoin(a, b *Table) *Table {
	byKey := make(map[float64][]int, b.Len())
	for j, key := range b.Keys {
		byKey[key] = append(byKey[key], j)
	}

	out := &Table{}
	for i, key := range a.Keys {
		for _, j := range byKey[key] {
			row := make([]float64, 0, len(a.Rows[i])+len(b.Rows[j]))
			row = append(row, a.Rows[i]...)
			row = append(row, b.Rows[j]...)
			out.Keys = append(out.Keys, key)
			out.Rows = append(out.Rows, row)
		}
	}
	sort.Stable(byKeyOrder{out})
	return out
}

type byKeyOrder struct{ *Table }

func (o byKeyOrder) Less(i, j int) bool { return o.Keys[i] < o.Keys[j] }
func (o byKeyOrder) Swap(i, j int) {
	o.Keys[i], o.Keys[j] = o.Keys[j], o.Keys[i]
	o.Rows[i], o.Rows[j] = o.Rows[j], o.Rows[i]
}

func splitLines(r io.Reader) ([][]string, error) {
	var records [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		// A trailing comma ends the row, it does not add a column.
		if fields[len(fields)-1] == "" {
			fields = fields[:len(fields)-1]
		}
		records = append(records, fields)
	}
	return records, sc.Err()
}

func parseRecords(records [][]string) ([][]float64, error) {
	rows := make([][]float64, 0, len(records))
	for i, rec := range records {
		if len(rows) > 0 && len(rec) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrMalformed, i, len(rec), len(rows[0]))
		}
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", ErrMalformed, i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
