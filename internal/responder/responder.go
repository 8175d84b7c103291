package responder

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/drafter"
	"github.com/oduo-labs/responder-cli/internal/engine"
	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/internal/store"
	"github.com/oduo-labs/responder-cli/internal/transport"
)

// Options tunes the reply pipeline.
type Options struct {
	BookingLink  string
	DefaultNiche string
}

// Service wires the stages of the reply pipeline together. All
// dependencies are injected; Sender may be nil when delivery is handled
// externally.
type Service struct {
	store   store.Store
	drafter drafter.Drafter
	sender  transport.Sender
	persona *Persona
	opts    Options
}

// NewService creates a responder service. A configured default niche
// overrides the persona's own, so the deploy target wins over the YAML.
func NewService(st store.Store, d drafter.Drafter, snd transport.Sender, p *Persona, opts Options) *Service {
	if p == nil {
		p = DefaultPersona()
	}
	if opts.DefaultNiche != "" {
		p.DefaultNiche = opts.DefaultNiche
	}
	return &Service{store: st, drafter: d, sender: snd, persona: p, opts: opts}
}

// ProcessRequest is one incoming lead message.
type ProcessRequest struct {
	Phone          string `json:"phone"`
	Message        string `json:"message"`
	ConversationID int    `json:"conversation_id,omitempty"`
	SenderName     string `json:"sender_name,omitempty"`
	AutoSend       bool   `json:"auto_send"`
}

// LeadSummary is the lead context echoed back to the caller.
type LeadSummary struct {
	Name       string      `json:"name"`
	Company    string      `json:"company"`
	Notes      string      `json:"notes"`
	CampaignID string      `json:"campaign_id"`
	Phase      model.Phase `json:"phase"`
	Progress   int         `json:"qualification_progress"`
}

// ProcessResult is the respond-phase outcome.
type ProcessResult struct {
	Status          string       `json:"status"`
	Phone           string       `json:"phone"`
	IncomingMessage string       `json:"incoming_message"`
	Intent          model.Intent `json:"intent"`
	ShouldSendLink  bool         `json:"should_send_link"`
	Reply           string       `json:"ai_response"`
	LeadContext     LeadSummary  `json:"lead_context"`
	Sent            bool         `json:"sent"`
	SendError       string       `json:"send_error,omitempty"`
}

// Process runs the respond phase: resolve (or create) the lead, classify
// the message, draft a reply and optionally deliver it. Qualification is
// deliberately NOT run here; callers invoke Qualify after the reply went
// out, so extraction always sees the complete exchange.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	phone := model.NormalizePhone(req.Phone)
	if phone == "" || req.Message == "" {
		return nil, eris.New("responder: phone and message are required")
	}

	lead, err := s.store.GetLead(ctx, phone)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		lead, err = s.createInboundLead(ctx, phone, req.SenderName)
		if err != nil {
			return nil, err
		}
		zap.L().Info("inbound lead created", zap.String("phone", phone))
	}

	intent := engine.Classify(req.Message)

	shouldSendLink := intent == model.IntentInterest
	if lead.Inbound() {
		shouldSendLink = engine.Progress(lead.Facts) == model.RequiredFactCount
	}

	system := BuildSystemPrompt(s.persona, lead, intent, s.opts.BookingLink)
	draftHistory := append(append([]model.Exchange{}, lead.History...), model.Exchange{
		Role: model.RoleLead, Content: req.Message, Timestamp: time.Now().UTC(),
	})

	reply := ""
	if s.drafter != nil {
		reply, err = s.drafter.Draft(ctx, system, draftHistory)
		if err != nil {
			zap.L().Warn("draft failed, using fallback",
				zap.String("phone", phone), zap.Error(err))
			reply = ""
		}
	}
	if reply == "" {
		reply = FallbackReply(s.persona, lead, req.Message, intent, s.opts.BookingLink)
	}

	if err := s.store.UpdateStatus(ctx, lead.Phone, statusFor(lead, intent)); err != nil {
		zap.L().Warn("status update failed", zap.String("phone", phone), zap.Error(err))
	}

	res := &ProcessResult{
		Status:          "processed",
		Phone:           phone,
		IncomingMessage: req.Message,
		Intent:          intent,
		ShouldSendLink:  shouldSendLink,
		Reply:           reply,
		LeadContext: LeadSummary{
			Name:       lead.Name,
			Company:    lead.Company,
			Notes:      lead.Notes,
			CampaignID: lead.CampaignID,
			Phase:      lead.Phase,
			Progress:   lead.Progress,
		},
	}

	if req.AutoSend && s.sender != nil {
		if err := s.deliver(ctx, lead, req.ConversationID, reply); err != nil {
			res.SendError = err.Error()
			zap.L().Error("reply delivery failed",
				zap.String("phone", phone), zap.Error(err))
		} else {
			res.Sent = true
		}
	}
	return res, nil
}

// statusFor maps the detected intent onto the pipeline. A refusal only
// means "perdido" for outbound leads; inbound refusals park as curioso
// because the lead reached out once already.
func statusFor(lead *model.Lead, intent model.Intent) model.LeadStatus {
	switch intent {
	case model.IntentInterest:
		return model.StatusInteressado
	case model.IntentNegative:
		if lead.Inbound() {
			return model.StatusCurioso
		}
		return model.StatusPerdido
	default:
		return model.StatusEmConversa
	}
}

func (s *Service) deliver(ctx context.Context, lead *model.Lead, conversationID int, reply string) error {
	if conversationID > 0 {
		return s.sender.ReplyToConversation(ctx, conversationID, reply)
	}
	return s.sender.SendMessage(ctx, lead.Phone, lead.Name, reply)
}

func (s *Service) createInboundLead(ctx context.Context, phone, senderName string) (*model.Lead, error) {
	lead := &model.Lead{
		Phone:       phone,
		Name:        orDefault(senderName, "Lead"),
		Notes:       "Lead inbound - veio da landing page",
		CampaignID:  "inbound_landing",
		Status:      model.StatusNovo,
		Phase:       model.PhaseRapport,
		LastContact: time.Now().UTC(),
	}
	if err := s.store.SaveLead(ctx, lead); err != nil {
		return nil, eris.Wrapf(err, "responder: create inbound lead %s", phone)
	}
	return lead, nil
}

// QualifyRequest is the post-send qualification callback payload.
type QualifyRequest struct {
	Phone           string       `json:"phone"`
	IncomingMessage string       `json:"incoming_message"`
	AIResponse      string       `json:"ai_response"`
	Intent          model.Intent `json:"intent,omitempty"`
}

// QualifyResult is the qualification-phase outcome.
type QualifyResult struct {
	Status             string       `json:"status"`
	Phone              string       `json:"phone"`
	LeadName           string       `json:"lead_name"`
	Company            string       `json:"company"`
	CampaignID         string       `json:"campaign_id"`
	Intent             model.Intent `json:"intent"`
	Phase              model.Phase  `json:"phase"`
	Progress           int          `json:"qualification_progress"`
	Facts              model.Facts  `json:"qualification_data"`
	Missing            []string     `json:"missing_data"`
	TotalExchanges     int          `json:"total_exchanges"`
	IsOuro             bool         `json:"is_ouro"`
	ShouldSendCalendar bool         `json:"should_send_calendar"`
	Insights           string       `json:"salesperson_insights"`
}

// Qualify runs the qualification phase: persist the completed exchange,
// re-extract facts over the full history and update phase, status and the
// salesperson briefing.
func (s *Service) Qualify(ctx context.Context, req QualifyRequest) (*QualifyResult, error) {
	phone := model.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, eris.New("responder: phone is required")
	}

	lead, err := s.store.GetLead(ctx, phone)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return &QualifyResult{Status: "no_context", Phone: phone}, nil
	}

	now := time.Now().UTC()
	err = s.store.AppendExchange(ctx, lead.Phone,
		model.Exchange{Role: model.RoleLead, Content: req.IncomingMessage, Timestamp: now},
		model.Exchange{Role: model.RoleBot, Content: req.AIResponse, Timestamp: now},
	)
	if err != nil {
		return nil, err
	}

	// Reload so extraction sees the trimmed, persisted history.
	lead, err = s.store.GetLead(ctx, lead.Phone)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return &QualifyResult{Status: "no_context", Phone: phone}, nil
	}

	intent := req.Intent
	if intent == "" {
		intent = engine.Classify(req.IncomingMessage)
	}

	qual := engine.Qualify(lead.History, lead.Facts, intent)
	err = s.store.UpdateQualification(ctx, lead.Phone, model.QualificationPatch{
		Facts:    qual.Facts,
		Progress: qual.Progress,
		Phase:    qual.Phase,
		Insights: qual.Insights,
	})
	if err != nil {
		return nil, err
	}

	switch qual.Phase {
	case model.PhaseOuro:
		err = s.store.UpdateStatus(ctx, lead.Phone, model.StatusQualificado)
	case model.PhaseCurioso:
		err = s.store.UpdateStatus(ctx, lead.Phone, model.StatusCurioso)
	}
	if err != nil {
		zap.L().Warn("status update failed", zap.String("phone", phone), zap.Error(err))
	}

	zap.L().Info("lead qualified",
		zap.String("phone", phone),
		zap.String("phase", string(qual.Phase)),
		zap.Int("progress", qual.Progress),
	)

	return &QualifyResult{
		Status:             "qualified",
		Phone:              phone,
		LeadName:           lead.Name,
		Company:            lead.Company,
		CampaignID:         lead.CampaignID,
		Intent:             intent,
		Phase:              qual.Phase,
		Progress:           qual.Progress,
		Facts:              qual.Facts,
		Missing:            qual.Missing,
		TotalExchanges:     qual.Exchanges,
		IsOuro:             qual.Ouro(),
		ShouldSendCalendar: qual.Ouro() && qual.Phase == model.PhaseOuro,
		Insights:           qual.Insights,
	}, nil
}
