// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/reconcile"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CategoriesColumn is the header of the output categories column.
const CategoriesColumn = "Categories"

// DescriptionColumn is the header of the optional description column.
const DescriptionColumn = "Description"

var urlColumnNames = []string{"images", "image", "image_url", "image url", "image_link", "url"}

// Table is a parsed catalog.
type Table struct {
	Header         []string
	Rows           [][]string
	URLColumn      int
	DescColumn     int // -1 when absent
	CategoryColumn int // -1 when absent
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a CSV stream, honoring a leading byte order mark.
func Read(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyCSV
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, fit(rec, len(header)))
	}

	urlCol, err := DetectURLColumn(header, rows)
	if err != nil {
		return nil, err
	}
	return &Table{
		Header:         header,
		Rows:           rows,
		URLColumn:      urlCol,
		DescColumn:     columnIndex(header, DescriptionColumn),
		CategoryColumn: columnIndex(header, CategoriesColumn),
	}, nil
}

// DetectURLColumn finds the column holding image URLs. Well-known header
// names win, then any header mentioning "image" or "url", then the first
// column whose first non-empty value is an http(s) URL.
func DetectURLColumn(header []string, rows [][]string) (int, error) {
	for _, name := range urlColumnNames {
		if idx := columnIndex(header, name); idx >= 0 {
			return idx, nil
		}
	}
	for i, h := range header {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "image") || strings.Contains(lower, "url") {
			return i, nil
		}
	}
	for col := range header {
		for _, row := range rows {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			if looksLikeURL(v) {
				return col, nil
			}
			break
		}
	}
	return -1, ErrNoURLColumn
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Record converts data row i into an ImageRecord.
func (t *Table) Record(i int) core.ImageRecord {
	row := t.Rows[i]
	rec := core.ImageRecord{
		Index:  i,
		URL:    strings.TrimSpace(row[t.URLColumn]),
		Fields: row,
	}
	if t.DescColumn >= 0 {
		rec.Description = strings.TrimSpace(row[t.DescColumn])
	}
	if t.CategoryColumn >= 0 {
		rec.Existing = reconcile.Split(row[t.CategoryColumn])
	}
	return rec
}

// Records returns the records from start to the end of the table.
func (t *Table) Records(start int) ([]core.ImageRecord, error) {
	if start < 0 || start >= t.Len() {
		return nil, fmt.Errorf("%w: start row %d of %d", ErrInvalidStartRow, start, t.Len())
	}
	out := make([]core.ImageRecord, 0, t.Len()-start)
	for i := start; i < t.Len(); i++ {
		out = append(out, t.Record(i))
	}
	return out, nil
}

// OutputHeader returns the header with a categories column appended if absent.
func (t *Table) OutputHeader() []string {
	if t.CategoryColumn >= 0 {
		return append([]string(nil), t.Header...)
	}
	return append(append([]string(nil), t.Header...), CategoriesColumn)
}

// OutputRow renders a record with its final categories.
func (t *Table) OutputRow(rec core.ImageRecord, categories []core.CategoryPath) []string {
	header := t.OutputHeader()
	row := fit(append([]string(nil), rec.Fields...), len(header))
	col := t.CategoryColumn
	if col < 0 {
		col = len(header) - 1
	}
	row[col] = reconcile.Join(categories)
	return row
}

// DefaultOutputPath derives "<stem>_categorized<ext>" next to the input.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	if ext == "" {
		ext = ".csv"
	}
	return stem + "_categorized" + ext
}

// IsInputError reports whether err stems from an unusable input file.
func IsInputError(err error) bool {
	var parseErr *csv.ParseError
	return errors.Is(err, ErrEmptyCSV) ||
		errors.Is(err, ErrNoURLColumn) ||
		errors.Is(err, ErrInvalidStartRow) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.As(err, &parseErr)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fit pads short rows and drops fields past the header, which have no
// column to be written under.
func fit(rec []string, n int) []string {
	if len(rec) > n {
		return rec[:n]
	}
	for len(rec) < n {
		rec = append(rec, "")
	}
	return rec
}
