package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/warden/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteArchiver persists records to an embedded SQLite database.
type SQLiteArchiver struct {
	db *sql.DB
}

func NewSQLiteArchiver(db *sql.DB) (*SQLiteArchiver, error) {
	s := &SQLiteArchiver{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func OpenSQLiteArchiver(dsn string) (*SQLiteArchiver, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive: %w", err)
	}
	return NewSQLiteArchiver(db)
}

func (s *SQLiteArchiver) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS proposals (
        proposal_id TEXT PRIMARY KEY,
        operation TEXT,
        target TEXT,
        payload JSON,
        proposer TEXT,
        voters JSON,
        required_votes INTEGER,
        status TEXT,
        created_at DATETIME,
        expires_at DATETIME,
        executed_at DATETIME
    );
    CREATE TABLE IF NOT EXISTS critical_reports (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        reporter TEXT,
        subject TEXT,
        reported_at DATETIME
    );
    CREATE TABLE IF NOT EXISTS pause_episodes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        subject TEXT,
        triggered_at DATETIME,
        report_count INTEGER,
        cleared_at DATETIME,
        cleared_by TEXT
    );
    CREATE TABLE IF NOT EXISTS parameter_changes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        actor TEXT,
        required_votes INTEGER,
        total_watchdogs INTEGER,
        voting_period_seconds INTEGER,
        changed_at DATETIME
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteArchiver) ArchiveProposal(ctx context.Context, p contracts.ProposalState) error {
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
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(proposal_id) DO UPDATE SET
            voters = excluded.voters,
            status = excluded.status,
            executed_at = excluded.executed_at
    `
	_, err = s.db.ExecContext(ctx, query,
		p.ID, string(p.Operation), p.Target, string(payload), p.Proposer,
		string(voters), p.RequiredVotes, string(p.Status),
		p.CreatedAt, p.ExpiresAt, p.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("archive proposal: %w", err)
	}
	return nil
}

func (s *SQLiteArchiver) ArchiveReport(ctx context.Context, r contracts.CriticalReport) error {
	query := `INSERT INTO critical_reports (reporter, subject, reported_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, r.Reporter, r.Subject, r.ReportedAt); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}

func (s *SQLiteArchiver) ArchivePause(ctx context.Context, e contracts.PauseEpisode) error {
	query := `INSERT INTO pause_episodes (subject, triggered_at, report_count, cleared_at, cleared_by) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, e.Subject, e.TriggeredAt, e.ReportCount, e.ClearedAt, e.ClearedBy); err != nil {
		return fmt.Errorf("archive pause: %w", err)
	}
	return nil
}

func (s *SQLiteArchiver) ArchiveParameterChange(ctx context.Context, c ParameterChange) error {
	query := `INSERT INTO parameter_changes (actor, required_votes, total_watchdogs, voting_period_seconds, changed_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		c.Actor, c.Params.RequiredVotes, c.Params.TotalWatchdogs,
		int64(c.Params.VotingPeriod.Seconds()), c.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("archive parameter change: %w", err)
	}
	return nil
}

func (s *SQLiteArchiver) Close() error {
	return s.db.Close()
}
