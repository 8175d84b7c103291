package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	phone        TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	campaign_id  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'novo',
	phase        TEXT NOT NULL DEFAULT 'rapport',
	facts        TEXT NOT NULL DEFAULT '{}',
	progress     INTEGER NOT NULL DEFAULT 0,
	insights     TEXT NOT NULL DEFAULT '',
	history      TEXT NOT NULL DEFAULT '[]',
	last_contact DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY,
	tag        TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'running',
	total      INTEGER NOT NULL DEFAULT 0,
	sent       INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS send_log (
	id          TEXT PRIMARY KEY,
	phone       TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	campaign_id TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	sent_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_send_log_campaign ON send_log(campaign_id);
CREATE INDEX IF NOT EXISTS idx_send_log_phone ON send_log(phone, sent_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const leadColumns = `phone, name, company, notes, campaign_id, status, phase,
	facts, progress, insights, history, last_contact, created_at, updated_at`

// GetLead looks up a lead by canonical phone, falling back to the bare
// national form for records imported before country-code normalization.
func (s *SQLiteStore) GetLead(ctx context.Context, phone string) (*model.Lead, error) {
	lead, err := s.getLeadExact(ctx, phone)
	if lead != nil || err != nil {
		return lead, err
	}
	if alt := strings.TrimPrefix(phone, "55"); alt != phone {
		return s.getLeadExact(ctx, alt)
	}
	return nil, nil
}

func (s *SQLiteStore) getLeadExact(ctx context.Context, phone string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone = ?`, phone)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return lead, err
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	factsJSON, historyJSON, err := marshalLead(lead)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			name = excluded.name, company = excluded.company,
			notes = excluded.notes, campaign_id = excluded.campaign_id,
			status = excluded.status, phase = excluded.phase,
			facts = excluded.facts, progress = excluded.progress,
			insights = excluded.insights, history = excluded.history,
			last_contact = excluded.last_contact, updated_at = excluded.updated_at`,
		lead.Phone, lead.Name, lead.Company, lead.Notes, lead.CampaignID,
		string(lead.Status), string(lead.Phase), factsJSON, lead.Progress,
		lead.Insights, historyJSON, nullTime(lead.LastContact),
		lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save lead %s", lead.Phone)
}

// AppendExchange appends entries to a lead's history, trimming to the most
// recent HistoryCap entries, and bumps last_contact.
func (s *SQLiteStore) AppendExchange(ctx context.Context, phone string, entries ...model.Exchange) error {
	lead, err := s.GetLead(ctx, phone)
	if err != nil {
		return err
	}
	if lead == nil {
		return eris.Errorf("lead not found: %s", phone)
	}

	history := append(lead.History, entries...)
	if len(history) > model.HistoryCap {
		history = history[len(history)-model.HistoryCap:]
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal history")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET history = ?, last_contact = ?, updated_at = ? WHERE phone = ?`,
		string(historyJSON), now, now, lead.Phone,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: append exchange %s", phone)
	}
	return checkRowsAffected(res, "lead", phone)
}

func (s *SQLiteStore) UpdateQualification(ctx context.Context, phone string, patch model.QualificationPatch) error {
	factsJSON, err := json.Marshal(patch.Facts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal facts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET facts = ?, progress = ?, phase = ?, insights = ?, updated_at = ? WHERE phone = ?`,
		string(factsJSON), patch.Progress, string(patch.Phase), patch.Insights,
		time.Now().UTC(), phone,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update qualification %s", phone)
	}
	return checkRowsAffected(res, "lead", phone)
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, phone string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE phone = ?`,
		string(status), time.Now().UTC(), phone,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status %s", phone)
	}
	return checkRowsAffected(res, "lead", phone)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CampaignID != "" {
		query += ` AND campaign_id = ?`
		args = append(args, filter.CampaignID)
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, job *model.CampaignJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, tag, status, total, sent, failed, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Tag, string(job.Status), job.Total, job.Sent, job.Failed,
		job.StartedAt, job.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: create campaign %s", job.ID)
}

func (s *SQLiteStore) UpdateCampaign(ctx context.Context, job *model.CampaignJob) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, total = ?, sent = ?, failed = ?, updated_at = ? WHERE id = ?`,
		string(job.Status), job.Total, job.Sent, job.Failed, job.UpdatedAt, job.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update campaign %s", job.ID)
	}
	return checkRowsAffected(res, "campaign", job.ID)
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*model.CampaignJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tag, status, total, sent, failed, started_at, updated_at
		 FROM campaigns WHERE id = ?`, id)

	var job model.CampaignJob
	err := row.Scan(&job.ID, &job.Tag, &job.Status, &job.Total, &job.Sent,
		&job.Failed, &job.StartedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get campaign")
	}
	return &job, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, limit int) ([]model.CampaignJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tag, status, total, sent, failed, started_at, updated_at
		 FROM campaigns ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns")
	}
	defer rows.Close()

	var jobs []model.CampaignJob
	for rows.Next() {
		var job model.CampaignJob
		if err := rows.Scan(&job.ID, &job.Tag, &job.Status, &job.Total,
			&job.Sent, &job.Failed, &job.StartedAt, &job.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		jobs = append(jobs, job)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list campaigns iterate")
}

func (s *SQLiteStore) LogSend(ctx context.Context, rec model.SendRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO send_log (id, phone, name, company, campaign_id, status, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Phone, rec.Name, rec.Company, rec.CampaignID,
		string(rec.Status), rec.Error, rec.SentAt,
	)
	return eris.Wrapf(err, "sqlite: log send %s", rec.Phone)
}

func (s *SQLiteStore) ListSends(ctx context.Context, campaignID string) ([]model.SendRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, name, company, campaign_id, status, error, sent_at
		 FROM send_log WHERE campaign_id = ? ORDER BY sent_at`, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sends")
	}
	defer rows.Close()

	var recs []model.SendRecord
	for rows.Next() {
		var rec model.SendRecord
		if err := rows.Scan(&rec.ID, &rec.Phone, &rec.Name, &rec.Company,
			&rec.CampaignID, &rec.Status, &rec.Error, &rec.SentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan send record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list sends iterate")
}

// RecentlyContacted reports whether the phone received a successful send
// after the given cutoff.
func (s *SQLiteStore) RecentlyContacted(ctx context.Context, phone string, since time.Time) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM send_log WHERE phone = ? AND status = ? AND sent_at > ?`,
		phone, string(model.SendStatusSent), since,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, eris.Wrap(err, "sqlite: recently contacted")
	}
	return n > 0, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func marshalLead(lead *model.Lead) (factsJSON, historyJSON string, err error) {
	facts, err := json.Marshal(lead.Facts)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal facts")
	}
	history := lead.History
	if history == nil {
		history = []model.Exchange{}
	}
	hist, err := json.Marshal(history)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal history")
	}
	return string(facts), string(hist), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var factsJSON, historyJSON string
	var lastContact sql.NullTime

	err := row.Scan(&l.Phone, &l.Name, &l.Company, &l.Notes, &l.CampaignID,
		&l.Status, &l.Phase, &factsJSON, &l.Progress, &l.Insights,
		&historyJSON, &lastContact, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan lead")
	}

	if err := json.Unmarshal([]byte(factsJSON), &l.Facts); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal facts")
	}
	if err := json.Unmarshal([]byte(historyJSON), &l.History); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal history")
	}
	if lastContact.Valid {
		l.LastContact = lastContact.Time
	}
	return &l, nil
}
