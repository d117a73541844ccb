package store_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergepost/mergepost/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return s
}

func TestOpenCreatesDataFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	_, err := store.Open(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[],"senders":[]}`, string(raw))
}

func TestOpenEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := store.Open("")
	assert.Error(t, err)
}

func TestSenderCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)

	sender := store.Sender{
		ID:        "s1",
		Name:      "Newsletter",
		Email:     "news@example.com",
		Password:  "secret",
		Host:      "smtp.example.com",
		Port:      587,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateSender(ctx, sender))

	got, err := s.GetSender(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sender.Email, got.Email)
	assert.Equal(t, 587, got.Port)

	sender.Host = "smtp2.example.com"
	require.NoError(t, s.UpdateSender(ctx, sender))
	got, err = s.GetSender(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "smtp2.example.com", got.Host)

	list, err := s.ListSenders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteSender(ctx, "s1"))
	_, err = s.GetSender(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting a missing sender leaves the same end state.
	assert.NoError(t, s.DeleteSender(ctx, "s1"))
}

func TestUpdateSenderNotFound(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	err := s.UpdateSender(context.Background(), store.Sender{ID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)

	user := store.User{
		ID:           "u1",
		Email:        "admin@example.com",
		PasswordHash: "$2a$10$hash",
		Name:         "Admin",
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(ctx, user))

	// Unique email constraint.
	err := s.CreateUser(ctx, store.User{ID: "u2", Email: "admin@example.com"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	byEmail, err := s.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	user.IsActive = false
	require.NoError(t, s.UpdateUser(ctx, user))
	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	err = s.DeleteUser(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDataSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateSender(ctx, store.Sender{ID: "s1", Email: "a@example.com"}))

	reopened, err := store.Open(path)
	require.NoError(t, err)
	got, err := reopened.GetSender(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.CreateSender(ctx, store.Sender{ID: string(rune('a' + i)), Email: "x@example.com"})
		}(i)
	}
	wg.Wait()

	list, err := s.ListSenders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, workers)
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListSenders(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
