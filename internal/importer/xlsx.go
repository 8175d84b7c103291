package importer

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ParseXLSX parses every worksheet of an XLSX workbook, skipping
// summary/dashboard tabs and deduplicating phones across all sheets.
func ParseXLSX(data []byte) (*Report, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}

	report := &Report{}
	seen := map[string]struct{}{}

	for _, sheet := range f.Sheets {
		if summarySheet(sheet.Name) {
			report.SkippedSheets = append(report.SkippedSheets, SkippedSheet{
				Name: sheet.Name, Reason: "Aba de resumo/dashboard",
			})
			continue
		}

		rows := sheetRows(sheet)
		headerIdx, cols, ok := findHeader(rows)
		if !ok || cols.phone < 0 {
			continue
		}

		if added := ingest(report, seen, rows[headerIdx+1:], cols, sheet.Name); added > 0 {
			report.Sheets = append(report.Sheets, SheetSummary{Name: sheet.Name, Leads: added})
		}
	}

	return report, nil
}

func summarySheet(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sheetRows(sheet *xlsx.Sheet) [][]string {
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows
}
