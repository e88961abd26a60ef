package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/config"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *User {
	t.Helper()
	u := &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "writer")

	got, err := s.GetUser(ctx, "writer")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "writer", got.Username)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "writer", byID.Username)

	absent, err := s.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seedUser(t, s, "dup")
	err := s.CreateUser(ctx, &User{
		ID:           uuid.New().String(),
		Username:     "dup",
		PasswordHash: "y",
		CreatedAt:    time.Now().UTC(),
	})
	assert.Error(t, err)
}

func TestCreatePostAndListSummaries(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "author")
	other := seedUser(t, s, "other")

	p1 := &Post{
		ID:        uuid.New().String(),
		AuthorID:  author.ID,
		Title:     "First",
		Content:   "body text",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	p2 := &Post{
		ID:        uuid.New().String(),
		AuthorID:  author.ID,
		Title:     "Second",
		Published: true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreatePost(ctx, p1))
	require.NoError(t, s.CreatePost(ctx, p2))
	require.NoError(t, s.CreatePost(ctx, &Post{
		ID:        uuid.New().String(),
		AuthorID:  other.ID,
		Title:     "Not mine",
		CreatedAt: time.Now().UTC(),
	}))

	summaries, err := s.ListPostSummaries(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first.
	assert.Equal(t, "Second", summaries[0].Title)
	assert.True(t, summaries[0].Published)
	assert.Equal(t, "First", summaries[1].Title)
	assert.False(t, summaries[1].Published)
}

func TestCountPostsByAuthor(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "counter")

	count, err := s.CountPostsByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreatePost(ctx, &Post{
			ID:        uuid.New().String(),
			AuthorID:  author.ID,
			Title:     "post",
			CreatedAt: time.Now().UTC(),
		}))
	}

	count, err = s.CountPostsByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetPost(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "reader")
	p := &Post{
		ID:        uuid.New().String(),
		AuthorID:  author.ID,
		Title:     "Hello",
		Content:   "full content here",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreatePost(ctx, p))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "full content here", got.Content)
	assert.Equal(t, author.ID, got.AuthorID)

	absent, err := s.GetPost(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestSubscriptionUpsertAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "subscriber")

	absent, err := s.GetSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, absent)

	require.NoError(t, s.UpsertSubscription(ctx, &Subscription{
		UserID:    u.ID,
		Plan:      "pro",
		UpdatedAt: time.Now().UTC(),
	}))

	sub, err := s.GetSubscription(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.Plan)

	// Upsert replaces the plan.
	require.NoError(t, s.UpsertSubscription(ctx, &Subscription{
		UserID:    u.ID,
		Plan:      "free",
		UpdatedAt: time.Now().UTC(),
	}))
	sub, err = s.GetSubscription(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "free", sub.Plan)
}

func TestFactorySelectsDriver(t *testing.T) {
	// Postgres needs a live server, so only the sqlite path runs here.
	st, err := New(config.StorageConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Ping(context.Background()))
	require.NoError(t, st.Close())

	_, err = New(config.StorageConfig{Driver: "bogus"})
	assert.Error(t, err)
}
