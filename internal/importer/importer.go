// Package importer parses bulk contact lists (CSV and XLSX) into campaign
// recipients. Sales spreadsheets arrive in every shape imaginable, so
// parsing is defensive: the header row is hunted within the first rows,
// columns are matched by alias, phones are normalized to the 11-digit
// national form and duplicates are reported rather than silently ingested.
package importer

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// Contact is one importable recipient.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
	Company string `json:"company"`
	Status  string `json:"original_status,omitempty"`
	Sheet   string `json:"source_sheet,omitempty"`
}

// BlockedContact is a row skipped because its status marks a closed deal.
type BlockedContact struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Status  string `json:"status"`
	Sheet   string `json:"sheet,omitempty"`
}

// Duplicate is a row whose normalized phone was already seen.
type Duplicate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Sheet string `json:"sheet,omitempty"`
}

// SheetSummary counts the contacts contributed by one worksheet.
type SheetSummary struct {
	Name  string `json:"name"`
	Leads int    `json:"leads"`
}

// SkippedSheet is a worksheet ignored as a summary/dashboard tab.
type SkippedSheet struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report is the full outcome of one import: who is contactable, and
// exactly why every other row was left out.
type Report struct {
	Contacts      []Contact        `json:"leads"`
	Blocked       []BlockedContact `json:"skipped_fechado"`
	NoPhone       int              `json:"skipped_no_phone"`
	Duplicates    []Duplicate      `json:"duplicates"`
	Sheets        []SheetSummary   `json:"sheets_processed"`
	SkippedSheets []SkippedSheet   `json:"skipped_sheets"`
}

// Defaults applied when a row leaves the field blank.
const (
	DefaultName  = "Amigo"
	DefaultNotes = "queria crescer o negocio"
)

// blockedStatuses mark deals that already closed. Any status containing
// one of these must never receive a campaign message.
var blockedStatuses = []string{
	"fechado", "fechou", "closed", "won", "ganho", "vendido",
	"cliente", "ativo", "contrato", "assinado",
}

// Column aliases, matched case-insensitively against header cells.
var (
	nameAliases    = []string{"name", "nome", "contato", "dono(s)", "dono", "responsavel"}
	phoneAliases   = []string{"phone", "telefone", "tel", "celular", "whatsapp", "fone"}
	notesAliases   = []string{"notes", "notas", "observacao", "obs", "dificuldade", "problema", "resumo"}
	companyAliases = []string{"company", "empresa", "razao_social"}
	statusAliases  = []string{"resultado", "status", "fase", "situacao"}
)

// headerKeywords identify the header row, which may sit below title rows.
var headerKeywords = []string{"telefone", "phone", "dono", "empresa", "nome", "contato"}

// summaryKeywords identify dashboard tabs that hold no contact rows.
var summaryKeywords = []string{"total", "resumo", "dashboard", "closer", "kpi", "meta", "consolidado"}

// headerHuntRows bounds the header search.
const headerHuntRows = 10

// ParseFile parses a contact list, dispatching on the file extension.
func ParseFile(path string, data []byte) (*Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ParseCSV(data)
	case ".xlsx":
		return ParseXLSX(data)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

type columns struct {
	name, phone, notes, company, status int
}

// findHeader scans the first headerHuntRows rows for one that looks like a
// header, returning its index and the resolved column mapping.
func findHeader(rows [][]string) (int, columns, bool) {
	for i, row := range rows {
		if i >= headerHuntRows {
			break
		}
		if !looksLikeHeader(row) {
			continue
		}
		cols := columns{
			name:    findColumn(row, nameAliases),
			phone:   findColumn(row, phoneAliases),
			notes:   findColumn(row, notesAliases),
			company: findColumn(row, companyAliases),
			status:  findColumn(row, statusAliases),
		}
		return i, cols, true
	}
	return 0, columns{}, false
}

func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func findColumn(header []string, aliases []string) int {
	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if lower == alias {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// BlockedStatus reports whether a status string marks a closed deal.
func BlockedStatus(status string) bool {
	lower := strings.ToLower(status)
	for _, blocked := range blockedStatuses {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ingest runs the row pipeline for one sheet, deduplicating through seen,
// which is shared across sheets. Returns the number of contacts added.
func ingest(report *Report, seen map[string]struct{}, rows [][]string, cols columns, sheet string) int {
	added := 0
	for _, row := range rows {
		if emptyRow(row) {
			continue
		}

		phone := model.NormalizeContactPhone(cellAt(row, cols.phone))
		if phone == "" {
			report.NoPhone++
			continue
		}

		name := cellAt(row, cols.name)
		company := cellAt(row, cols.company)
		status := cellAt(row, cols.status)

		if BlockedStatus(status) {
			report.Blocked = append(report.Blocked, BlockedContact{
				Name:    orDefault(name, "Sem nome"),
				Company: company,
				Phone:   phone,
				Status:  status,
				Sheet:   sheet,
			})
			continue
		}

		if _, dup := seen[phone]; dup {
			report.Duplicates = append(report.Duplicates, Duplicate{
				Name: name, Phone: phone, Sheet: sheet,
			})
			continue
		}
		seen[phone] = struct{}{}

		report.Contacts = append(report.Contacts, Contact{
			Name:    orDefault(name, DefaultName),
			Phone:   phone,
			Notes:   orDefault(cellAt(row, cols.notes), DefaultNotes),
			Company: company,
			Status:  status,
			Sheet:   sheet,
		})
		added++
	}
	return added
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
