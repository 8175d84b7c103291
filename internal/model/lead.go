package model

import "time"

// Intent is the coarse classification of a single inbound message.
type Intent string

const (
	IntentInterest Intent = "interest"
	IntentNegative Intent = "negative"
	IntentQuestion Intent = "question"
	IntentNeutral  Intent = "neutral"
)

// Phase is the SPIN-style dialogue stage derived from facts, history and intent.
type Phase string

const (
	PhaseRapport     Phase = "rapport"     // brand-new lead, nothing merged yet
	PhaseSituacao    Phase = "situacao"    // opening questions
	PhaseProblema    Phase = "problema"    // probing for the pain point
	PhaseImplicacao  Phase = "implicacao"  // making the pain felt
	PhaseNecessidade Phase = "necessidade" // closing toward a meeting
	PhaseOuro        Phase = "ouro"        // fully qualified
	PhaseCurioso     Phase = "curioso"     // disengaged, close politely
)

// LeadStatus is the pipeline column a lead sits in.
type LeadStatus string

const (
	StatusNovo        LeadStatus = "novo"
	StatusEmConversa  LeadStatus = "em_conversa"
	StatusInteressado LeadStatus = "interessado"
	StatusQualificado LeadStatus = "qualificado"
	StatusAgendado    LeadStatus = "reuniao_agendada"
	StatusCurioso     LeadStatus = "curioso"
	StatusPerdido     LeadStatus = "perdido"
	StatusContatado   LeadStatus = "contacted"
)

// ValidStatuses lists the statuses a lead may be manually moved to.
var ValidStatuses = []LeadStatus{
	StatusNovo, StatusEmConversa, StatusQualificado,
	StatusAgendado, StatusCurioso, StatusPerdido,
}

// Revenue brackets extracted from conversation.
const (
	FaturamentoAte20k   = "ate_20k"
	Faturamento20a50k   = "20_50k"
	FaturamentoAcima50k = "acima_50k"
)

// Ownership structure extracted from conversation.
const (
	SocioDonoUnico = "dono_unico"
	SocioTemSocio  = "tem_socio"
)

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleLead Role = "lead"
	RoleBot  Role = "bot"
)

// Exchange is a single conversation entry. History is append-only and
// externally capped to the most recent HistoryCap entries.
type Exchange struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryCap is the maximum number of stored history entries (10 exchanges).
const HistoryCap = 20

// Facts holds the qualification attributes learned from a lead's messages.
// Empty string means "not yet known". Once a field is set it is never
// cleared or overwritten by later extraction passes.
type Facts struct {
	Empresa     string `json:"empresa,omitempty"`
	Dor         string `json:"dor,omitempty"`
	Faturamento string `json:"faturamento,omitempty"`
	Socio       string `json:"socio,omitempty"`
	Cidade      string `json:"cidade,omitempty"` // optional, excluded from progress
}

// RequiredFactCount is the number of facts needed for full qualification.
const RequiredFactCount = 4

// Lead aggregates identity, qualification state and conversation history.
type Lead struct {
	Phone       string     `json:"phone"`
	Name        string     `json:"name"`
	Company     string     `json:"company"`
	Notes       string     `json:"notes"`
	CampaignID  string     `json:"campaign_id"`
	Status      LeadStatus `json:"status"`
	Phase       Phase      `json:"phase"`
	Facts       Facts      `json:"qualification_data"`
	Progress    int        `json:"qualification_progress"`
	Insights    string     `json:"salesperson_insights,omitempty"`
	History     []Exchange `json:"conversation_history"`
	LastContact time.Time  `json:"last_contact"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Inbound reports whether the lead arrived through an inbound channel
// (landing page / unknown sender) rather than an outbound campaign touch.
// Inbound leads gate the scheduling link on full qualification.
func (l *Lead) Inbound() bool {
	return hasPrefix(l.CampaignID, "inbound_")
}

// Reactivation reports whether the lead came from a reactivation campaign.
func (l *Lead) Reactivation() bool {
	return hasPrefix(l.CampaignID, "reativacao_")
}

// ColdSpin reports whether the lead came from a cold SPIN prospecting
// campaign (found on Google, never spoke to us before).
func (l *Lead) ColdSpin() bool {
	return hasPrefix(l.CampaignID, "cold_spin_")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ExchangeCount returns the number of completed lead/bot pairs.
func (l *Lead) ExchangeCount() int {
	return len(l.History) / 2
}

// LastLeadMessage returns the most recent lead-authored entry, if any.
func (l *Lead) LastLeadMessage() (Exchange, bool) {
	for i := len(l.History) - 1; i >= 0; i-- {
		if l.History[i].Role == RoleLead {
			return l.History[i], true
		}
	}
	return Exchange{}, false
}

// QualificationPatch is the engine's output for one qualification pass,
// persisted by the caller. The engine itself holds no state between calls.
type QualificationPatch struct {
	Facts    Facts  `json:"qualification_data"`
	Progress int    `json:"qualification_progress"`
	Phase    Phase  `json:"phase"`
	Insights string `json:"salesperson_insights"`
}
