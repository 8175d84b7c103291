package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	phone        TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	campaign_id  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'novo',
	phase        TEXT NOT NULL DEFAULT 'rapport',
	facts        JSONB NOT NULL DEFAULT '{}',
	progress     INT NOT NULL DEFAULT 0,
	insights     TEXT NOT NULL DEFAULT '',
	history      JSONB NOT NULL DEFAULT '[]',
	last_contact TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaigns (
	id         TEXT PRIMARY KEY,
	tag        TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'running',
	total      INT NOT NULL DEFAULT 0,
	sent       INT NOT NULL DEFAULT 0,
	failed     INT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS send_log (
	id          TEXT PRIMARY KEY,
	phone       TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	campaign_id TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	sent_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_send_log_campaign ON send_log(campaign_id);
CREATE INDEX IF NOT EXISTS idx_send_log_phone ON send_log(phone, sent_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, phone string) (*model.Lead, error) {
	lead, err := s.getLeadExact(ctx, phone)
	if lead != nil || err != nil {
		return lead, err
	}
	if alt := strings.TrimPrefix(phone, "55"); alt != phone {
		return s.getLeadExact(ctx, alt)
	}
	return nil, nil
}

func (s *PostgresStore) getLeadExact(ctx context.Context, phone string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone)

	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return lead, err
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	factsJSON, historyJSON, err := marshalLead(lead)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (phone) DO UPDATE SET
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
	return eris.Wrapf(err, "postgres: save lead %s", lead.Phone)
}

func (s *PostgresStore) AppendExchange(ctx context.Context, phone string, entries ...model.Exchange) error {
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
		return eris.Wrap(err, "postgres: marshal history")
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET history = $1, last_contact = $2, updated_at = $3 WHERE phone = $4`,
		string(historyJSON), now, now, lead.Phone,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: append exchange %s", phone)
	}
	return checkTagAffected(tag, "lead", phone)
}

func (s *PostgresStore) UpdateQualification(ctx context.Context, phone string, patch model.QualificationPatch) error {
	factsJSON, err := json.Marshal(patch.Facts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal facts")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET facts = $1, progress = $2, phase = $3, insights = $4, updated_at = $5 WHERE phone = $6`,
		string(factsJSON), patch.Progress, string(patch.Phase), patch.Insights,
		time.Now().UTC(), phone,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update qualification %s", phone)
	}
	return checkTagAffected(tag, "lead", phone)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, phone string, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE phone = $3`,
		string(status), time.Now().UTC(), phone,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update status %s", phone)
	}
	return checkTagAffected(tag, "lead", phone)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		query += ` AND campaign_id = $` + itoa(len(args))
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, job *model.CampaignJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, tag, status, total, sent, failed, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.Tag, string(job.Status), job.Total, job.Sent, job.Failed,
		job.StartedAt, job.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: create campaign %s", job.ID)
}

func (s *PostgresStore) UpdateCampaign(ctx context.Context, job *model.CampaignJob) error {
	job.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1, total = $2, sent = $3, failed = $4, updated_at = $5 WHERE id = $6`,
		string(job.Status), job.Total, job.Sent, job.Failed, job.UpdatedAt, job.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update campaign %s", job.ID)
	}
	return checkTagAffected(tag, "campaign", job.ID)
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.CampaignJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tag, status, total, sent, failed, started_at, updated_at
		 FROM campaigns WHERE id = $1`, id)

	var job model.CampaignJob
	err := row.Scan(&job.ID, &job.Tag, &job.Status, &job.Total, &job.Sent,
		&job.Failed, &job.StartedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get campaign")
	}
	return &job, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context, limit int) ([]model.CampaignJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tag, status, total, sent, failed, started_at, updated_at
		 FROM campaigns ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var jobs []model.CampaignJob
	for rows.Next() {
		var job model.CampaignJob
		if err := rows.Scan(&job.ID, &job.Tag, &job.Status, &job.Total,
			&job.Sent, &job.Failed, &job.StartedAt, &job.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		jobs = append(jobs, job)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list campaigns iterate")
}

func (s *PostgresStore) LogSend(ctx context.Context, rec model.SendRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO send_log (id, phone, name, company, campaign_id, status, error, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Phone, rec.Name, rec.Company, rec.CampaignID,
		string(rec.Status), rec.Error, rec.SentAt,
	)
	return eris.Wrapf(err, "postgres: log send %s", rec.Phone)
}

func (s *PostgresStore) ListSends(ctx context.Context, campaignID string) ([]model.SendRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, phone, name, company, campaign_id, status, error, sent_at
		 FROM send_log WHERE campaign_id = $1 ORDER BY sent_at`, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sends")
	}
	defer rows.Close()

	var recs []model.SendRecord
	for rows.Next() {
		var rec model.SendRecord
		if err := rows.Scan(&rec.ID, &rec.Phone, &rec.Name, &rec.Company,
			&rec.CampaignID, &rec.Status, &rec.Error, &rec.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan send record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list sends iterate")
}

func (s *PostgresStore) RecentlyContacted(ctx context.Context, phone string, since time.Time) (bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM send_log WHERE phone = $1 AND status = $2 AND sent_at > $3`,
		phone, string(model.SendStatusSent), since,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, eris.Wrap(err, "postgres: recently contacted")
	}
	return n > 0, nil
}

// helpers

func checkTagAffected(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var factsJSON, historyJSON string
	var lastContact *time.Time

	err := row.Scan(&l.Phone, &l.Name, &l.Company, &l.Notes, &l.CampaignID,
		&l.Status, &l.Phase, &factsJSON, &l.Progress, &l.Insights,
		&historyJSON, &lastContact, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan lead")
	}

	if err := json.Unmarshal([]byte(factsJSON), &l.Facts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal facts")
	}
	if err := json.Unmarshal([]byte(historyJSON), &l.History); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal history")
	}
	if lastContact != nil {
		l.LastContact = *lastContact
	}
	return &l, nil
}
