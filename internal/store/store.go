// Package store defines the storage interface for the service and provides
// SQLite and PostgreSQL implementations.
package store

import (
	"context"
	"time"
)

// Store is the persistence interface for the service.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// Posts
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPostSummaries(ctx context.Context, authorID string) ([]PostSummary, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int, error)

	// Subscriptions
	UpsertSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)

	// Health
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// User represents an account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Post represents a stored post.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostSummary is the list projection of a post. Content is deliberately
// excluded from list results.
type PostSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription maps a user to a billing plan. Rows are written by the billing
// system; this service only reads them to resolve the active plan.
type Subscription struct {
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"` // "free" or "pro"
	UpdatedAt time.Time `json:"updated_at"`
}
