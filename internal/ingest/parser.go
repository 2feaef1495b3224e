package ingest

// parser.go turns a raw CSV payload into numbered rows.
//
// The whole payload is decoded before any row is handed on, so a payload that
// turns out to be malformed halfway through never leaves half an ingestion
// committed. Row numbers follow the payload: the header is row 1.

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseOptions controls how the payload is decoded.
type ParseOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// LazyQuotes accepts stray quotes inside unquoted fields, which
	// spreadsheet exports produce more often than one would hope.
	LazyQuotes bool
}

// Columns maps each question field to its position within a row.
type Columns struct {
	Content  int
	Category int
	Company  int
	Year     int
}

// DefaultColumns is the positional layout used when the header does not name
// every column: content, category, company, year.
var DefaultColumns = Columns{Content: 0, Category: 1, Company: 2, Year: 3}

// position returns the column index of a field name, or -1 for an unknown name.
func (c Columns) position(field string) int {
	switch field {
	case FieldContent:
		return c.Content
	case FieldCategory:
		return c.Category
	case FieldCompany:
		return c.Company
	case FieldYear:
		return c.Year
	}
	return -1
}

// Payload is a decoded CSV payload.
type Payload struct {
	Header  []string
	Columns Columns
	Rows    []RawRow
}

// ParsePayload reads r to the end and splits it into a header and data rows.
//
// It fails with ErrIngestionAborted when the bytes are not valid UTF-8 or not
// valid CSV, and with ErrEmptyPayload when there is no data row.
func ParsePayload(r io.Reader, opts ParseOptions) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, abort(errors.Wrap(err, "read payload"), "")
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, abort(ErrInvalidEncoding, "Save the file with UTF-8 encoding and upload it again.")
	}

	records, err := parseCSV(data, opts)
	if err != nil {
		return nil, abort(err, "Check the file for unbalanced quotes or a wrong delimiter.")
	}

	if len(records) < 2 {
		return nil, errors.WithHint(ErrEmptyPayload, "The file needs a header row followed by at least one question.")
	}

	p := &Payload{
		Header:  records[0],
		Columns: ResolveColumns(records[0]),
		Rows:    make([]RawRow, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		p.Rows = append(p.Rows, RawRow{Number: i + 2, Fields: rec})
	}

	return p, nil
}

func parseCSV(data []byte, opts ParseOptions) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = opts.LazyQuotes
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	return r.ReadAll()
}

// headerAliases maps normalized header names to the field they hold.
var headerAliases = map[string]string{
	"content":      "content",
	"question":     "content",
	"category":     "category",
	"company":      "company",
	"organization": "company",
	"year":         "year",
	"questionat":   "year",
}

// ResolveColumns locates the question fields by header name.
// When any of the four fields is not named, DefaultColumns is returned.
func ResolveColumns(header []string) Columns {
	found := make(map[string]int, 4)
	for i, h := range header {
		field, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := found[field]; !dup {
			found[field] = i
		}
	}

	if len(found) < 4 {
		return DefaultColumns
	}

	return Columns{
		Content:  found["content"],
		Category: found["category"],
		Company:  found["company"],
		Year:     found["year"],
	}
}

// normalizeHeader lowercases a header cell and strips spreadsheet artifacts,
// so "Question At", "question_at" and ="questionAt" all compare equal.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	s = strings.Trim(s, `"'`)
	s = strings.ToLower(s)

	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, s)
}
