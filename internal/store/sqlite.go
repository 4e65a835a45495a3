package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id                 TEXT PRIMARY KEY,
		created_at         TEXT NOT NULL,
		command            TEXT NOT NULL,
		archive_dir        TEXT NOT NULL,
		timezone           TEXT NOT NULL,
		reaction           TEXT NOT NULL DEFAULT '',
		files              INTEGER NOT NULL DEFAULT 0,
		events             INTEGER NOT NULL DEFAULT 0,
		has_snapshot       INTEGER NOT NULL DEFAULT 0,
		series_granularity TEXT,
		series_from        TEXT,
		series_to          TEXT,
		series_skipped     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS participants (
		run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		idx            INTEGER NOT NULL,
		participant_id INTEGER NOT NULL,
		name           TEXT NOT NULL,
		messages_sent  INTEGER NOT NULL,
		total_received INTEGER NOT NULL,
		total_given    INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS cells (
		run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		actor_idx    INTEGER NOT NULL,
		receiver_idx INTEGER NOT NULL,
		count        INTEGER NOT NULL,
		PRIMARY KEY (run_id, actor_idx, receiver_idx)
	);

	CREATE TABLE IF NOT EXISTS series_points (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		participant TEXT NOT NULL,
		date        TEXT NOT NULL,
		count       INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func newID() string {
	return ulid.Make().String()
}

// SaveRun stores run in a single transaction and returns its id. The id and
// creation time are assigned when empty.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = newID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var reaction string
	if run.Snapshot != nil {
		reaction = run.Snapshot.Reaction
	}
	var granularity, from, to sql.NullString
	var skipped int
	if run.Series != nil {
		granularity = sql.NullString{String: string(run.Series.Granularity), Valid: true}
		from = sql.NullString{String: run.Series.From, Valid: true}
		to = sql.NullString{String: run.Series.To, Valid: true}
		skipped = run.Series.Skipped
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, command, archive_dir, timezone, reaction, files, events,
			has_snapshot, series_granularity, series_from, series_to, series_skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Command, run.ArchiveDir, run.Timezone,
		reaction, run.Files, run.Events, run.Snapshot != nil, granularity, from, to, skipped,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if run.Snapshot != nil {
		if err := saveSnapshot(ctx, tx, run.ID, run.Snapshot); err != nil {
			return "", err
		}
	}
	if run.Series != nil {
		if err := saveSeries(ctx, tx, run.ID, run.Series); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

func saveSnapshot(ctx context.Context, tx *sql.Tx, runID string, snapshot *aggregator.Snapshot) error {
	participantStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO participants (run_id, idx, participant_id, name, messages_sent, total_received, total_given)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare participants: %w", err)
	}
	defer participantStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (run_id, actor_idx, receiver_idx, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cells: %w", err)
	}
	defer cellStmt.Close()

	for idx, p := range snapshot.Participants {
		if _, err := participantStmt.ExecContext(ctx, runID, idx, int(p.ID), p.Name,
			p.MessagesSent, p.TotalReceived, p.TotalGiven); err != nil {
			return fmt.Errorf("insert participant %s: %w", p.Name, err)
		}
		// Only the given side is stored; received is its transpose.
		for receiver, count := range p.GivenTo {
			if count == 0 {
				continue
			}
			if _, err := cellStmt.ExecContext(ctx, runID, idx, receiver, count); err != nil {
				return fmt.Errorf("insert cell: %w", err)
			}
		}
	}
	return nil
}

func saveSeries(ctx context.Context, tx *sql.Tx, runID string, series *aggregator.BucketSeries) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series_points (run_id, seq, participant, date, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare series: %w", err)
	}
	defer stmt.Close()

	for seq, p := range series.Points {
		if _, err := stmt.ExecContext(ctx, runID, seq, p.Participant, p.Date, p.Count); err != nil {
			return fmt.Errorf("insert series point: %w", err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.command, r.archive_dir, r.reaction, r.events,
			(SELECT COUNT(*) FROM participants p WHERE p.run_id = r.id),
			(SELECT COUNT(*) FROM series_points sp WHERE sp.run_id = r.id)
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.Command, &run.ArchiveDir, &run.Reaction,
			&run.Events, &run.Participants, &run.SeriesPoints); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads a run with its snapshot and series.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var run RunRecord
	var createdAt, reaction string
	var hasSnapshot bool
	var granularity, from, to sql.NullString
	var skipped int

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, command, archive_dir, timezone, reaction, files, events,
			has_snapshot, series_granularity, series_from, series_to, series_skipped
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &createdAt, &run.Command, &run.ArchiveDir, &run.Timezone, &reaction,
		&run.Files, &run.Events, &hasSnapshot, &granularity, &from, &to, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	if hasSnapshot {
		snapshot, err := s.loadSnapshot(ctx, id, reaction)
		if err != nil {
			return nil, err
		}
		run.Snapshot = snapshot
	}

	if granularity.Valid {
		series := &aggregator.BucketSeries{
			Granularity: aggregator.Granularity(granularity.String),
			From:        from.String,
			To:          to.String,
			Skipped:     skipped,
		}
		if err := s.loadSeries(ctx, id, series); err != nil {
			return nil, err
		}
		run.Series = series
	}

	return &run, nil
}

func (s *SQLiteStore) loadSnapshot(ctx context.Context, runID, reaction string) (*aggregator.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, name, messages_sent, total_received, total_given
		FROM participants WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	snapshot := &aggregator.Snapshot{Reaction: reaction}
	for rows.Next() {
		var p aggregator.ParticipantStats
		var participantID int
		if err := rows.Scan(&participantID, &p.Name, &p.MessagesSent, &p.TotalReceived, &p.TotalGiven); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.ID = model.ParticipantID(participantID)
		snapshot.Names = append(snapshot.Names, p.Name)
		snapshot.Participants = append(snapshot.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	n := len(snapshot.Participants)
	for i := range snapshot.Participants {
		snapshot.Participants[i].ReceivedFrom = make([]int, n)
		snapshot.Participants[i].GivenTo = make([]int, n)
	}

	cells, err := s.db.QueryContext(ctx,
		`SELECT actor_idx, receiver_idx, count FROM cells WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load cells: %w", err)
	}
	defer cells.Close()

	for cells.Next() {
		var actor, receiver, count int
		if err := cells.Scan(&actor, &receiver, &count); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		if actor >= n || receiver >= n {
			return nil, fmt.Errorf("cell (%d, %d) out of range for run %s", actor, receiver, runID)
		}
		snapshot.Participants[actor].GivenTo[receiver] = count
		snapshot.Participants[receiver].ReceivedFrom[actor] = count
	}
	return snapshot, cells.Err()
}

func (s *SQLiteStore) loadSeries(ctx context.Context, runID string, series *aggregator.BucketSeries) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT participant, date, count FROM series_points WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var p aggregator.SeriesPoint
		if err := rows.Scan(&p.Participant, &p.Date, &p.Count); err != nil {
			return fmt.Errorf("scan series point: %w", err)
		}
		p.Bucket, _ = time.Parse("2006-01-02", p.Date)
		if !seen[p.Participant] {
			seen[p.Participant] = true
			series.Participants = append(series.Participants, p.Participant)
		}
		series.Points = append(series.Points, p)
	}
	return rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
