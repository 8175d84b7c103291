// Package server exposes the responder pipeline, kanban board and bulk
// campaign operations over HTTP. Routes mirror the automation flows that
// call them: Chatwoot posts to the webhook, n8n drives process/qualify,
// the sales dashboard reads the kanban and runs reactivation imports.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/campaign"
	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/internal/responder"
	"github.com/oduo-labs/responder-cli/internal/store"
)

// Options tunes request handling.
type Options struct {
	AutoSend        bool          // deliver webhook replies through the transport
	BookingLink     string        // substituted into default campaign templates
	CampaignDelay   time.Duration // default delay between campaign recipients
	RecontactWindow time.Duration // preview recontact filter window
	AllowedOrigins  []string      // CORS origins; empty means allow all
}

// Server holds the wired dependencies behind the HTTP surface.
type Server struct {
	store     store.Store
	responder *responder.Service
	runner    *campaign.Runner
	opts      Options
}

// New assembles a server. The runner may be nil when campaign routes are
// not needed (they 404 via nil checks in their handlers).
func New(st store.Store, svc *responder.Service, runner *campaign.Runner, opts Options) *Server {
	return &Server{store: st, responder: svc, runner: runner, opts: opts}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/ai-responder", func(r chi.Router) {
		r.Post("/webhook", s.handleWebhook)
		r.Post("/process", s.handleProcess)
		r.Post("/qualify", s.handleQualify)
		r.Post("/test-response", s.handleTestResponse)
		r.Get("/test/{phone}", s.handleLeadProbe)
		r.Get("/kanban", s.handleKanban)
		r.Post("/kanban/move", s.handleKanbanMove)
	})

	r.Route("/reactivation", func(r chi.Router) {
		r.Post("/preview", s.handlePreview)
		r.Post("/send-bulk", s.handleSendBulk)
		r.Get("/campaign/{id}", s.handleCampaignProgress)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// webhookPayload is the slice of the Chatwoot event envelope we consume.
type webhookPayload struct {
	Event       string `json:"event"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	Sender      struct {
		Name string `json:"name"`
	} `json:"sender"`
	Conversation struct {
		ID           int `json:"id"`
		ContactInbox struct {
			SourceID string `json:"source_id"`
		} `json:"contact_inbox"`
	} `json:"conversation"`
}

// handleWebhook receives Chatwoot events. Everything except a freshly
// created incoming message is acknowledged and ignored, so Chatwoot never
// retries events we do not care about.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "reason": "invalid payload",
		})
		return
	}

	if payload.MessageType != "incoming" {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored", "reason": "not incoming message",
		})
		return
	}
	if payload.Event != "message_created" {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored", "reason": "not message_created event",
		})
		return
	}

	phone := payload.Conversation.ContactInbox.SourceID
	if phone == "" || payload.Content == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "error", "reason": "missing phone or message",
		})
		return
	}

	res, err := s.responder.Process(r.Context(), responder.ProcessRequest{
		Phone:          phone,
		Message:        payload.Content,
		ConversationID: payload.Conversation.ID,
		SenderName:     payload.Sender.Name,
		AutoSend:       s.opts.AutoSend,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleProcess is the direct entry point used when the automation layer
// handles delivery itself.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req responder.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.responder.Process(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQualify(w http.ResponseWriter, r *http.Request) {
	var req responder.QualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.responder.Qualify(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleTestResponse drafts a reply without delivering it.
func (s *Server) handleTestResponse(w http.ResponseWriter, r *http.Request) {
	var req responder.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.AutoSend = false

	res, err := s.responder.Process(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLeadProbe reports whether a phone has stored context.
func (s *Server) handleLeadProbe(w http.ResponseWriter, r *http.Request) {
	phone := model.NormalizePhone(chi.URLParam(r, "phone"))

	lead, err := s.store.GetLead(r.Context(), phone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if lead == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"found": false, "message": "No context found for " + phone,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "context": lead})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
