package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/internal/store"
)

// kanbanColumns in board order.
var kanbanColumns = []string{
	"novo", "em_conversa", "qualificado", "reuniao_agendada", "curioso", "perdido",
}

// LeadCard is the kanban board projection of a lead.
type LeadCard struct {
	Phone           string           `json:"phone"`
	Name            string           `json:"name"`
	Company         string           `json:"company"`
	CampaignID      string           `json:"campaign_id"`
	Status          model.LeadStatus `json:"status"`
	Phase           model.Phase      `json:"phase"`
	Progress        int              `json:"qualification_progress"`
	Facts           model.Facts      `json:"qualification_data"`
	Insights        string           `json:"salesperson_insights"`
	TotalExchanges  int              `json:"total_exchanges"`
	LastMessage     string           `json:"last_message"`
	LastMessageTime *time.Time       `json:"last_message_time,omitempty"`
	LastContact     *time.Time       `json:"last_contact,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// lastMessagePreviewLen truncates card previews.
const lastMessagePreviewLen = 100

// handleKanban groups all leads into pipeline columns with summary counts.
func (s *Server) handleKanban(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context(), store.LeadFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	columns := make(map[string][]LeadCard, len(kanbanColumns))
	for _, col := range kanbanColumns {
		columns[col] = []LeadCard{}
	}

	cards := make([]LeadCard, 0, len(leads))
	for i := range leads {
		card := newLeadCard(&leads[i])
		cards = append(cards, card)
		col := columnFor(&leads[i])
		columns[col] = append(columns[col], card)
	}

	summary := make(map[string]int, len(kanbanColumns)+1)
	for col, colCards := range columns {
		summary[col] = len(colCards)
	}
	summary["total"] = len(cards)

	writeJSON(w, http.StatusOK, map[string]any{
		"leads":   cards,
		"columns": columns,
		"summary": summary,
	})
}

func newLeadCard(lead *model.Lead) LeadCard {
	card := LeadCard{
		Phone:          lead.Phone,
		Name:           lead.Name,
		Company:        lead.Company,
		CampaignID:     lead.CampaignID,
		Status:         lead.Status,
		Phase:          lead.Phase,
		Progress:       lead.Progress,
		Facts:          lead.Facts,
		Insights:       lead.Insights,
		TotalExchanges: lead.ExchangeCount(),
		UpdatedAt:      lead.UpdatedAt,
	}
	if !lead.LastContact.IsZero() {
		lc := lead.LastContact
		card.LastContact = &lc
	}
	if msg, ok := lead.LastLeadMessage(); ok {
		card.LastMessage = truncate(msg.Content, lastMessagePreviewLen)
		ts := msg.Timestamp
		card.LastMessageTime = &ts
	}
	return card
}

// columnFor maps a lead to its board column. Phase wins over status for
// the qualified and curious buckets so a lead the engine already flagged
// shows up in the right place even before the status catches up.
func columnFor(lead *model.Lead) string {
	switch {
	case lead.Status == model.StatusQualificado || lead.Phase == model.PhaseOuro:
		return "qualificado"
	case lead.Status == model.StatusAgendado:
		return "reuniao_agendada"
	case lead.Status == model.StatusCurioso || lead.Phase == model.PhaseCurioso:
		return "curioso"
	case lead.Status == model.StatusPerdido:
		return "perdido"
	case lead.Status == model.StatusEmConversa || lead.Status == model.StatusInteressado:
		return "em_conversa"
	default:
		return "novo"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type kanbanMoveRequest struct {
	Phone     string           `json:"phone"`
	NewStatus model.LeadStatus `json:"new_status"`
}

// handleKanbanMove manually moves a lead to another column.
func (s *Server) handleKanbanMove(w http.ResponseWriter, r *http.Request) {
	var req kanbanMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if !validStatus(req.NewStatus) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "status invalido", "valid": model.ValidStatuses,
		})
		return
	}

	phone := model.NormalizePhone(req.Phone)
	if err := s.store.UpdateStatus(r.Context(), phone, req.NewStatus); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "updated", "phone": phone, "new_status": req.NewStatus,
	})
}

func validStatus(status model.LeadStatus) bool {
	for _, s := range model.ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
