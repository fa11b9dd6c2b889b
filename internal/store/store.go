package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"newscast/pkg/news"
)

// User is a registered newscast recipient.
type User struct {
	ID                int64  `db:"id"`
	Email             string `db:"email"`
	PreferredCategory string `db:"preferred_category"`
	PreferredRegion   string `db:"preferred_region"`
}

// TokenUsage is one model invocation's token accounting.
type TokenUsage struct {
	RequestID        string    `db:"request_id"`
	RequestTimestamp time.Time `db:"request_timestamp"`
	ModelName        string    `db:"model_name"`
	UserID           string    `db:"user_id"`
	FeatureName      string    `db:"feature_name"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	TotalTokens      int       `db:"total_tokens"`
}

// FeatureUsage aggregates token usage per application feature.
type FeatureUsage struct {
	FeatureName      string `db:"feature_name"`
	Calls            int    `db:"calls"`
	PromptTokens     int    `db:"prompt_tokens"`
	CompletionTokens int    `db:"completion_tokens"`
	TotalTokens      int    `db:"total_tokens"`
}

// Store is the persistence interface.
type Store interface {
	CreateUser(ctx context.Context, email string) (int64, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUserPreferences(ctx context.Context, userID int64) (*news.Preferences, error)
	SetPreferences(ctx context.Context, userID int64, category, region string) error
	SetTopics(ctx context.Context, userID int64, topics []string) error

	LastRateLimitEvent(ctx context.Context) (time.Time, bool, error)
	InsertRateLimitEvent(ctx context.Context, message string) error

	InsertTokenUsage(ctx context.Context, rec TokenUsage) error
	TokenUsageByFeature(ctx context.Context) ([]FeatureUsage, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO users (email) VALUES (?)", email)
	if err != nil {
		return 0, fmt.Errorf("create user %s: %w", email, err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *SQLiteStore) GetUserPreferences(ctx context.Context, userID int64) (*news.Preferences, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	var topics []string
	err = s.db.SelectContext(ctx, &topics,
		"SELECT topic_name FROM topic_preferences WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("get topics for user %d: %w", userID, err)
	}

	return &news.Preferences{
		PreferredCategory: user.PreferredCategory,
		Topics:            topics,
		PreferredRegion:   user.PreferredRegion,
	}, nil
}

func (s *SQLiteStore) SetPreferences(ctx context.Context, userID int64, category, region string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET preferred_category = ?, preferred_region = ? WHERE id = ?",
		category, region, userID)
	if err != nil {
		return fmt.Errorf("set preferences for user %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) SetTopics(ctx context.Context, userID int64, topics []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set topics for user %d: %w", userID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM topic_preferences WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear topics for user %d: %w", userID, err)
	}
	for _, topic := range topics {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO topic_preferences (user_id, topic_name) VALUES (?, ?)", userID, topic); err != nil {
			return fmt.Errorf("insert topic for user %d: %w", userID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LastRateLimitEvent(ctx context.Context) (time.Time, bool, error) {
	var timestamps []time.Time
	err := s.db.SelectContext(ctx, &timestamps,
		"SELECT timestamp FROM api_errors ORDER BY timestamp DESC LIMIT 1")
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last rate limit event: %w", err)
	}
	if len(timestamps) == 0 {
		return time.Time{}, false, nil
	}
	return timestamps[0], true, nil
}

func (s *SQLiteStore) InsertRateLimitEvent(ctx context.Context, message string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_errors (error_message, timestamp) VALUES (?, ?)",
		message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert rate limit event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertTokenUsage(ctx context.Context, rec TokenUsage) error {
	if rec.RequestID == "" {
		rec.RequestID = uuid.NewString()
	}
	if rec.RequestTimestamp.IsZero() {
		rec.RequestTimestamp = time.Now().UTC()
	}
	if rec.UserID == "" {
		rec.UserID = "anonymous"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_token_usage (request_id, request_timestamp, model_name, user_id, feature_name, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RequestID, rec.RequestTimestamp, rec.ModelName, rec.UserID,
		rec.FeatureName, rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens)
	if err != nil {
		return fmt.Errorf("insert token usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TokenUsageByFeature(ctx context.Context) ([]FeatureUsage, error) {
	var usage []FeatureUsage
	err := s.db.SelectContext(ctx, &usage, `
		SELECT feature_name,
		       COUNT(*) AS calls,
		       SUM(prompt_tokens) AS prompt_tokens,
		       SUM(completion_tokens) AS completion_tokens,
		       SUM(total_tokens) AS total_tokens
		FROM api_token_usage
		GROUP BY feature_name
		ORDER BY total_tokens DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("token usage by feature: %w", err)
	}
	return usage, nil
}
