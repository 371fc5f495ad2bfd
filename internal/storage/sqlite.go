//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"agora/internal/model"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sqlx.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind reports the preferred backend in this build.
func DefaultStoreKind() string {
	return "sqlite"
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sqlx.Open("sqlite", s.path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at_utc TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		codec_version INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE TABLE IF NOT EXISTS populations (
		run_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) getDB() (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, run.ID, run.CreatedAtUTC, run.SchemaVersion, run.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}

	var payload []byte
	err = db.GetContext(ctx, &payload, `SELECT payload FROM runs WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) SaveGenerationHistory(ctx context.Context, runID string, history []model.GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM generations WHERE run_id = ?`, runID); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO generations (run_id, generation, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, generation := range history {
		payload, err := EncodeGeneration(generation)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, generation.Generation, payload); err != nil {
			return fmt.Errorf("insert generation %d: %w", generation.Generation, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetGenerationHistory(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payloads [][]byte
	err = db.SelectContext(ctx, &payloads, `SELECT payload FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, false, err
	}
	if len(payloads) == 0 {
		return nil, false, nil
	}

	history := make([]model.GenerationRecord, 0, len(payloads))
	for _, payload := range payloads {
		generation, err := DecodeGeneration(payload)
		if err != nil {
			return nil, false, fmt.Errorf("decode generation history %s: %w", runID, err)
		}
		history = append(history, generation)
	}
	return history, true, nil
}

func (s *SQLiteStore) SaveFinalPopulation(ctx context.Context, runID string, agents []model.AgentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM populations WHERE run_id = ?`, runID); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO populations (run_id, agent_id, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, agent := range agents {
		payload, err := EncodeAgent(agent)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, agent.ID, payload); err != nil {
			return fmt.Errorf("insert agent %s: %w", agent.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetFinalPopulation(ctx context.Context, runID string) ([]model.AgentRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payloads [][]byte
	err = db.SelectContext(ctx, &payloads, `SELECT payload FROM populations WHERE run_id = ? ORDER BY agent_id`, runID)
	if err != nil {
		return nil, false, err
	}
	if len(payloads) == 0 {
		return nil, false, nil
	}

	agents := make([]model.AgentRecord, 0, len(payloads))
	for _, payload := range payloads {
		agent, err := DecodeAgent(payload)
		if err != nil {
			return nil, false, fmt.Errorf("decode population %s: %w", runID, err)
		}
		agents = append(agents, agent)
	}
	return agents, true, nil
}
