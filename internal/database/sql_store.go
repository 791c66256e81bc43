package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// SQLStore persists each user's topics as one JSON row
type SQLStore struct {
	db *sqlx.DB
}

type userTopicsRow struct {
	UserID  int64  `db:"user_id"`
	Payload string `db:"payload"`
}

// NewSQLStore creates a SQL-backed persister
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// InitializeSchema creates the user_topics table if it doesn't exist
func (s *SQLStore) InitializeSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_topics (
			user_id BIGINT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_topics table: %w", err)
	}
	return nil
}

// Load reads every user's topics
func (s *SQLStore) Load(ctx context.Context) (map[models.UserID][]models.Topic, error) {
	var rows []userTopicsRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT user_id, payload FROM user_topics ORDER BY user_id"); err != nil {
		return nil, fmt.Errorf("failed to query user topics: %w", err)
	}

	out := make(map[models.UserID][]models.Topic, len(rows))
	for _, row := range rows {
		var records []topicRecord
		if err := json.Unmarshal([]byte(row.Payload), &records); err != nil {
			return nil, fmt.Errorf("failed to parse topics of user %d: %w", row.UserID, err)
		}
		topics, err := decodeTopics(records)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", row.UserID, err)
		}
		out[models.UserID(row.UserID)] = topics
	}
	return out, nil
}

// Save upserts every user's topics in a single transaction
func (s *SQLStore) Save(ctx context.Context, topics map[models.UserID][]models.Topic) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO user_topics (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`)
	now := time.Now().UTC()

	for userID, list := range topics {
		payload, err := json.Marshal(encodeTopics(list))
		if err != nil {
			return fmt.Errorf("failed to encode topics of user %d: %w", userID, err)
		}
		if _, err := tx.ExecContext(ctx, query, int64(userID), string(payload), now); err != nil {
			return fmt.Errorf("failed to save topics of user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit topics: %w", err)
	}
	return nil
}
