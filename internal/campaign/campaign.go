// Package campaign runs bulk two-message sends over an imported contact
// list: per-recipient template rendering, recontact-window filtering,
// sequential delivery with a polite delay and a per-recipient send log.
package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oduo-labs/responder-cli/internal/importer"
	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/internal/store"
	"github.com/oduo-labs/responder-cli/internal/transport"
)

// Default two-message sequence: opening plus question, then value
// proposition with the CTA link. No delay between the two; the delay sits
// between recipients.
const (
	DefaultMsg1 = `Fala, [NAME]! Tudo bem por ai? Joao aqui.

Estava revisando as anotacoes que meu time fez sobre sua empresa. Vi que voce estava [NOTES]. Conseguiu resolver?`

	DefaultMsg2 = `Pergunto porque amanha teremos uma aula gratuita online com um cliente nosso que saiu de R$ 65.000 para R$ 150.000 sem depender de indicacao! Quero te convidar para esse evento. Faz sentido pra voce?

Se sim, entre no link abaixo:

[LINK]`
)

// Templates holds the two messages sent to each recipient.
type Templates struct {
	Msg1 string `json:"msg1_template"`
	Msg2 string `json:"msg2_template"`
}

// DefaultTemplates returns the built-in sequence with the booking link
// substituted into msg2.
func DefaultTemplates(link string) Templates {
	return Templates{
		Msg1: DefaultMsg1,
		Msg2: strings.ReplaceAll(DefaultMsg2, "[LINK]", link),
	}
}

// FormatMessage renders a template for one contact. Both the bracket and
// brace placeholder styles are accepted; older spreadsheets circulated with
// either.
func FormatMessage(template string, c importer.Contact) string {
	name := c.Name
	if name == "" {
		name = importer.DefaultName
	}
	notes := c.Notes
	if notes == "" {
		notes = importer.DefaultNotes
	}

	r := strings.NewReplacer(
		"[NAME]", name, "{name}", name,
		"[NOTES]", notes, "{notes}", notes,
		"[COMPANY]", c.Company, "{company}", c.Company,
	)
	return r.Replace(template)
}

// NewCampaignID mints a trackable campaign identifier.
func NewCampaignID(prefix string) string {
	if prefix == "" {
		prefix = "reativacao"
	}
	return fmt.Sprintf("%s_%s_%s",
		prefix,
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:6],
	)
}

// Options tunes the runner.
type Options struct {
	Delay           time.Duration // between recipients, not messages
	RecontactWindow time.Duration // suppress phones contacted within this window
	Tag             string        // conversation tag passed to the transport persona
}

// Runner executes bulk campaigns against a store and a sender.
type Runner struct {
	store  store.Store
	sender transport.Sender
	opts   Options
}

// NewRunner creates a campaign runner. A zero RecontactWindow defaults to
// 30 days.
func NewRunner(st store.Store, snd transport.Sender, opts Options) *Runner {
	if opts.RecontactWindow == 0 {
		opts.RecontactWindow = 30 * 24 * time.Hour
	}
	return &Runner{store: st, sender: snd, opts: opts}
}

// WithDelay returns a copy of the runner using a different delay between
// recipients. Per-request overrides share the rest of the wiring.
func (r *Runner) WithDelay(d time.Duration) *Runner {
	cp := *r
	cp.opts.Delay = d
	return &cp
}

// recontactLookups bounds concurrent send-log checks in FilterRecent.
const recontactLookups = 8

// FilterRecent partitions contacts into sendable and recently contacted,
// checking the send log for each phone within the recontact window.
func (r *Runner) FilterRecent(ctx context.Context, contacts []importer.Contact) (sendable, recent []importer.Contact, err error) {
	since := time.Now().UTC().Add(-r.opts.RecontactWindow)
	contacted := make([]bool, len(contacts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recontactLookups)
	for i, c := range contacts {
		g.Go(func() error {
			hit, err := r.store.RecentlyContacted(ctx, c.Phone, since)
			if err != nil {
				return err
			}
			contacted[i] = hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, c := range contacts {
		if contacted[i] {
			recent = append(recent, c)
		} else {
			sendable = append(sendable, c)
		}
	}
	return sendable, recent, nil
}

// Run sends the two-message sequence to every contact sequentially. A
// failed recipient is logged and skipped; the run continues. The campaign
// job row is updated after every recipient so progress queries see live
// counts.
func (r *Runner) Run(ctx context.Context, campaignID string, contacts []importer.Contact, tmpl Templates) (*model.CampaignJob, error) {
	now := time.Now().UTC()
	job := &model.CampaignJob{
		ID:        campaignID,
		Tag:       r.opts.Tag,
		Status:    model.CampaignRunning,
		Total:     len(contacts),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateCampaign(ctx, job); err != nil {
		return nil, err
	}

	for i, c := range contacts {
		if err := ctx.Err(); err != nil {
			job.Status = model.CampaignFailed
			r.updateJob(ctx, job)
			return job, err
		}

		r.sendOne(ctx, job, c, tmpl)
		r.updateJob(ctx, job)

		if i < len(contacts)-1 && r.opts.Delay > 0 {
			if err := sleep(ctx, r.opts.Delay); err != nil {
				job.Status = model.CampaignFailed
				r.updateJob(ctx, job)
				return job, err
			}
		}
	}

	job.Status = model.CampaignComplete
	r.updateJob(ctx, job)
	zap.L().Info("campaign complete",
		zap.String("campaign_id", campaignID),
		zap.Int("sent", job.Sent),
		zap.Int("failed", job.Failed),
	)
	return job, nil
}

func (r *Runner) sendOne(ctx context.Context, job *model.CampaignJob, c importer.Contact, tmpl Templates) {
	phone := model.NormalizePhone(c.Phone)
	msg1 := FormatMessage(tmpl.Msg1, c)
	msg2 := FormatMessage(tmpl.Msg2, c)

	rec := model.SendRecord{
		ID:         uuid.NewString(),
		Phone:      c.Phone,
		Name:       c.Name,
		Company:    c.Company,
		CampaignID: job.ID,
		SentAt:     time.Now().UTC(),
	}

	if err := r.sender.SendPair(ctx, phone, c.Name, msg1, msg2); err != nil {
		job.Failed++
		rec.Status = model.SendStatusFailed
		rec.Error = err.Error()
		zap.L().Warn("campaign send failed",
			zap.String("campaign_id", job.ID),
			zap.String("phone", c.Phone),
			zap.Error(err),
		)
	} else {
		job.Sent++
		rec.Status = model.SendStatusSent
		if err := r.saveLeadContext(ctx, phone, c, job.ID); err != nil {
			zap.L().Warn("lead context save failed",
				zap.String("phone", c.Phone), zap.Error(err))
		}
	}

	if err := r.store.LogSend(ctx, rec); err != nil {
		zap.L().Warn("send log write failed",
			zap.String("phone", c.Phone), zap.Error(err))
	}
}

// saveLeadContext records who was messaged so the responder has context
// when the lead replies. Existing leads keep their history and facts.
func (r *Runner) saveLeadContext(ctx context.Context, phone string, c importer.Contact, campaignID string) error {
	now := time.Now().UTC()
	lead, err := r.store.GetLead(ctx, phone)
	if err != nil {
		return err
	}
	if lead == nil {
		lead = &model.Lead{
			Phone:  phone,
			Status: model.StatusContatado,
			Phase:  model.PhaseRapport,
		}
	}
	lead.Name = c.Name
	lead.Notes = c.Notes
	lead.Company = c.Company
	lead.CampaignID = campaignID
	lead.LastContact = now
	return r.store.SaveLead(ctx, lead)
}

func (r *Runner) updateJob(ctx context.Context, job *model.CampaignJob) {
	job.UpdatedAt = time.Now().UTC()
	if err := r.store.UpdateCampaign(ctx, job); err != nil {
		zap.L().Warn("campaign progress update failed",
			zap.String("campaign_id", job.ID), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Progress summarizes a campaign from its send log.
type Progress struct {
	CampaignID string `json:"campaign_id"`
	Found      bool   `json:"found"`
	Status     string `json:"status,omitempty"`
	Total      int    `json:"total"`
	Processed  int    `json:"total_processed"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}

// QueryProgress aggregates live counts for a campaign id.
func QueryProgress(ctx context.Context, st store.Store, campaignID string) (*Progress, error) {
	job, err := st.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return &Progress{CampaignID: campaignID}, nil
	}

	recs, err := st.ListSends(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	p := &Progress{
		CampaignID: campaignID,
		Found:      true,
		Status:     string(job.Status),
		Total:      job.Total,
		Processed:  len(recs),
	}
	for _, rec := range recs {
		switch rec.Status {
		case model.SendStatusSent:
			p.Sent++
		case model.SendStatusFailed:
			p.Failed++
		}
	}
	return p, nil
}
