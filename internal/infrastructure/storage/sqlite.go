package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

// SQLiteStore persists the full exchange state as a single JSON document
// row. Every Save rewrites the whole record; there is no transaction
// spanning the caller's mutation and no lock against other processes
// sharing the same file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS exchange_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Load returns the persisted state, or (nil, nil) when none exists yet.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.ExchangeState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM exchange_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state domain.ExchangeState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode exchange state: %w", err)
	}
	if state.Positions == nil {
		state.Positions = make(map[string]*domain.Position)
	}
	if state.Orders == nil {
		state.Orders = make(map[string]*domain.Order)
	}
	// Order ids live in the map keys of the document.
	for id, o := range state.Orders {
		o.ID = id
	}
	return &state, nil
}

// Save rewrites the single durable record.
func (s *SQLiteStore) Save(ctx context.Context, state *domain.ExchangeState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode exchange state: %w", err)
	}

	query := `INSERT INTO exchange_state (id, payload, updated_at) VALUES (1, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  payload=excluded.payload,
			  updated_at=excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query, string(payload), time.Now().UTC())
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
