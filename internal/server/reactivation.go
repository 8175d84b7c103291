package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/oduo-labs/responder-cli/internal/campaign"
	"github.com/oduo-labs/responder-cli/internal/importer"
)

// maxUploadBytes caps contact-list uploads (20 MiB).
const maxUploadBytes = 20 << 20

// previewCount limits rendered message previews.
const previewCount = 5

type previewLead struct {
	importer.Contact
	PreviewMsg1 string `json:"preview_msg1"`
	PreviewMsg2 string `json:"preview_msg2"`
}

// handlePreview parses an uploaded contact list and reports what a
// campaign over it would do, without sending anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := importer.ParseFile(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sendable, recent, err := s.runner.FilterRecent(r.Context(), report.Contacts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	tmpl := campaign.DefaultTemplates(s.opts.BookingLink)
	previews := make([]previewLead, 0, previewCount)
	for _, c := range sendable {
		if len(previews) == previewCount {
			break
		}
		previews = append(previews, previewLead{
			Contact:     c,
			PreviewMsg1: campaign.FormatMessage(tmpl.Msg1, c),
			PreviewMsg2: campaign.FormatMessage(tmpl.Msg2, c),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_leads": len(sendable),
		"preview":     previews,
		"all_leads":   sendable,
		"templates":   tmpl,
		"safety_report": map[string]any{
			"skipped_fechado":        len(report.Blocked),
			"skipped_fechado_list":   head(report.Blocked, 10),
			"already_contacted":      len(recent),
			"already_contacted_list": head(recent, 10),
			"duplicates_removed":     len(report.Duplicates),
			"duplicates_list":        head(report.Duplicates, 10),
			"no_phone":               report.NoPhone,
			"sheets_processed":       report.Sheets,
			"sheets_skipped":         report.SkippedSheets,
		},
	})
}

func head[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type sendBulkRequest struct {
	Leads        []importer.Contact `json:"leads"`
	Msg1Template string             `json:"msg1_template,omitempty"`
	Msg2Template string             `json:"msg2_template,omitempty"`
	DelaySeconds *int               `json:"delay_seconds,omitempty"`
}

// handleSendBulk launches a campaign over the supplied contacts and
// returns immediately; progress is polled via the campaign route.
func (s *Server) handleSendBulk(w http.ResponseWriter, r *http.Request) {
	var req sendBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Leads) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lista de leads vazia"})
		return
	}

	// Closed deals are filtered at import time, but the lead list arrives
	// back from the client, so re-check before sending.
	safe := req.Leads[:0:0]
	for _, c := range req.Leads {
		if !importer.BlockedStatus(c.Status) {
			safe = append(safe, c)
		}
	}
	if len(safe) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "todos os leads foram filtrados (status fechado)",
		})
		return
	}

	tmpl := campaign.DefaultTemplates(s.opts.BookingLink)
	if req.Msg1Template != "" {
		tmpl.Msg1 = req.Msg1Template
	}
	if req.Msg2Template != "" {
		tmpl.Msg2 = req.Msg2Template
	}

	delay := s.opts.CampaignDelay
	if req.DelaySeconds != nil {
		delay = time.Duration(*req.DelaySeconds) * time.Second
	}

	campaignID := campaign.NewCampaignID("reativacao")
	go func() {
		runner := s.runner.WithDelay(delay)
		if _, err := runner.Run(context.Background(), campaignID, safe, tmpl); err != nil {
			zap.L().Error("campaign run failed",
				zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":            "sending",
		"campaign_id":       campaignID,
		"total":             len(safe),
		"messages_per_lead": 2,
		"delay_seconds":     int(delay / time.Second),
	})
}

// handleCampaignProgress reports live counts for a campaign.
func (s *Server) handleCampaignProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	progress, err := campaign.QueryProgress(r.Context(), s.store, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
