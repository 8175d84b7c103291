package store

import (
	"context"
	"time"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status     model.LeadStatus `json:"status,omitempty"`
	CampaignID string           `json:"campaign_id,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for leads, campaigns and the
// send log. Get methods return (nil, nil) when the record does not exist.
type Store interface {
	// Leads
	GetLead(ctx context.Context, phone string) (*model.Lead, error)
	SaveLead(ctx context.Context, lead *model.Lead) error
	AppendExchange(ctx context.Context, phone string, entries ...model.Exchange) error
	UpdateQualification(ctx context.Context, phone string, patch model.QualificationPatch) error
	UpdateStatus(ctx context.Context, phone string, status model.LeadStatus) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Campaigns
	CreateCampaign(ctx context.Context, job *model.CampaignJob) error
	UpdateCampaign(ctx context.Context, job *model.CampaignJob) error
	GetCampaign(ctx context.Context, id string) (*model.CampaignJob, error)
	ListCampaigns(ctx context.Context, limit int) ([]model.CampaignJob, error)

	// Send log
	LogSend(ctx context.Context, rec model.SendRecord) error
	ListSends(ctx context.Context, campaignID string) ([]model.SendRecord, error)
	RecentlyContacted(ctx context.Context, phone string, since time.Time) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
