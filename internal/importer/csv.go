package importer

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseCSV parses a CSV contact list. The delimiter is sniffed from the
// first line: comma, then semicolon, then tab. Ragged rows are tolerated.
func ParseCSV(data []byte) (*Report, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "importer: parse csv")
	}

	report := &Report{}
	headerIdx, cols, ok := findHeader(rows)
	if !ok {
		return nil, eris.New("importer: no header row found")
	}
	if cols.phone < 0 {
		return nil, eris.New("importer: no phone column found")
	}

	ingest(report, map[string]struct{}{}, rows[headerIdx+1:], cols, "")
	return report, nil
}

func sniffDelimiter(data []byte) rune {
	firstLine := string(data)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	switch {
	case strings.Contains(firstLine, ","):
		return ','
	case strings.Contains(firstLine, ";"):
		return ';'
	default:
		return '\t'
	}
}
