package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL store and runs migrations.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			user_id TEXT PRIMARY KEY REFERENCES users(id),
			plan TEXT NOT NULL DEFAULT 'free',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n  SQL: %s", err, m)
		}
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = $1", username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Posts ---

func (s *PostgresStore) CreatePost(ctx context.Context, post *Post) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, author_id, title, content, published, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		post.ID, post.AuthorID, post.Title, post.Content, post.Published, post.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := s.db.QueryRowContext(ctx,
		"SELECT id, author_id, title, content, published, created_at FROM posts WHERE id = $1", id,
	).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Published, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListPostSummaries(ctx context.Context, authorID string) ([]PostSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, published, created_at FROM posts WHERE author_id = $1 ORDER BY created_at DESC", authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostSummary
	for rows.Next() {
		var p PostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Published, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) CountPostsByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE author_id = $1", authorID,
	).Scan(&count)
	return count, err
}

// --- Subscriptions ---

func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub *Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, plan, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT(user_id) DO UPDATE SET plan = EXCLUDED.plan, updated_at = EXCLUDED.updated_at`,
		sub.UserID, sub.Plan, sub.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetSubscription(ctx context.Context, userID string) (*Subscription, error) {
	var sub Subscription
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, plan, updated_at FROM subscriptions WHERE user_id = $1", userID,
	).Scan(&sub.UserID, &sub.Plan, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
