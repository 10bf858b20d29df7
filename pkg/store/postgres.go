package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/warden/pkg/contracts"

	_ "github.com/lib/pq"
)

// PostgresArchiver persists records to a shared Postgres database so
// archives survive replica restarts.
type PostgresArchiver struct {
	db *sql.DB
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS proposals (
	proposal_id TEXT PRIMARY KEY,
	operation TEXT,
	target TEXT,
	payload JSONB,
	proposer TEXT,
	voters JSONB,
	required_votes INTEGER,
	status TEXT,
	created_at TIMESTAMP,
	expires_at TIMESTAMP,
	executed_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS critical_reports (
	id BIGSERIAL PRIMARY KEY,
	reporter TEXT,
	subject TEXT,
	reported_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS pause_episodes (
	id BIGSERIAL PRIMARY KEY,
	subject TEXT,
	triggered_at TIMESTAMP,
	report_count INTEGER,
	cleared_at TIMESTAMP,
	cleared_by TEXT
);
CREATE TABLE IF NOT EXISTS parameter_changes (
	id BIGSERIAL PRIMARY KEY,
	actor TEXT,
	required_votes INTEGER,
	total_watchdogs INTEGER,
	voting_period_seconds BIGINT,
	changed_at TIMESTAMP
);`

func NewPostgresArchiver(db *sql.DB) (*PostgresArchiver, error) {
	a := &PostgresArchiver{db: db}
	if _, err := db.ExecContext(context.Background(), pgSchema); err != nil {
		return nil, fmt.Errorf("migrate postgres archive: %w", err)
	}
	return a, nil
}

func OpenPostgresArchiver(dsn string) (*PostgresArchiver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres archive: %w", err)
	}
	return NewPostgresArchiver(db)
}

func (a *PostgresArchiver) ArchiveProposal(ctx context.Context, p contracts.ProposalState) error {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	voters, err := json.Marshal(p.Voters)
	if err != nil {
		return fmt.Errorf("marshal voters: %w", err)
	}

	query := `
		INSERT INTO proposals (proposal_id, operation, target, payload, proposer, voters, required_votes, status, created_at, expires_at, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (proposal_id) DO UPDATE SET
			voters = EXCLUDED.voters,
			status = EXCLUDED.status,
			executed_at = EXCLUDED.executed_at
	`
	_, err = a.db.ExecContext(ctx, query,
		p.ID, string(p.Operation), p.Target, payload, p.Proposer,
		voters, p.RequiredVotes, string(p.Status),
		p.CreatedAt, p.ExpiresAt, p.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("archive proposal: %w", err)
	}
	return nil
}

func (a *PostgresArchiver) ArchiveReport(ctx context.Context, r contracts.CriticalReport) error {
	query := `INSERT INTO critical_reports (reporter, subject, reported_at) VALUES ($1, $2, $3)`
	if _, err := a.db.ExecContext(ctx, query, r.Reporter, r.Subject, r.ReportedAt); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}

func (a *PostgresArchiver) ArchivePause(ctx context.Context, e contracts.PauseEpisode) error {
	query := `INSERT INTO pause_episodes (subject, triggered_at, report_count, cleared_at, cleared_by) VALUES ($1, $2, $3, $4, $5)`
	if _, err := a.db.ExecContext(ctx, query, e.Subject, e.TriggeredAt, e.ReportCount, e.ClearedAt, e.ClearedBy); err != nil {
		return fmt.Errorf("archive pause: %w", err)
	}
	return nil
}

func (a *PostgresArchiver) ArchiveParameterChange(ctx context.Context, c ParameterChange) error {
	query := `INSERT INTO parameter_changes (actor, required_votes, total_watchdogs, voting_period_seconds, changed_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := a.db.ExecContext(ctx, query,
		c.Actor, c.Params.RequiredVotes, c.Params.TotalWatchdogs,
		int64(c.Params.VotingPeriod.Seconds()), c.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("archive parameter change: %w", err)
	}
	return nil
}

func (a *PostgresArchiver) Close() error {
	return a.db.Close()
}
