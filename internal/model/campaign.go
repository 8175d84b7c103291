package model

import "time"

// CampaignStatus tracks a bulk send job.
type CampaignStatus string

const (
	CampaignRunning  CampaignStatus = "running"
	CampaignComplete CampaignStatus = "complete"
	CampaignFailed   CampaignStatus = "failed"
)

// CampaignJob is the progress record for one bulk send run.
type CampaignJob struct {
	ID        string         `json:"id"`
	Tag       string         `json:"tag"`
	Status    CampaignStatus `json:"status"`
	Total     int            `json:"total"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SendStatus is the delivery outcome for one recipient.
type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// SendRecord is one row of the campaign send log. Failures keep the raw
// error string so a human can triage without grepping logs.
type SendRecord struct {
	ID         string     `json:"id"`
	Phone      string     `json:"phone"`
	Name       string     `json:"name"`
	Company    string     `json:"company"`
	CampaignID string     `json:"campaign_id"`
	Status     SendStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	SentAt     time.Time  `json:"sent_at"`
}
