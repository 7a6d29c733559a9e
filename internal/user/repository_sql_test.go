package user_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"ingestion-api/internal/store"
	"ingestion-api/internal/user"
)

// Each test gets its own on-disk engine so state never leaks between tests.
func newTestStore(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file://" + filepath.Join(t.TempDir(), "store.db")
	db, err := store.OpenSecondary(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestSQLRepository_Create_AssignsIDAndTimestamps(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	require.Positive(t, first.ID)
	require.Equal(t, "Alice", first.Name)
	require.Equal(t, "alice@example.com", first.Email)
	require.False(t, first.CreatedAt.IsZero())
	require.False(t, first.UpdatedAt.IsZero())
	require.WithinDuration(t, time.Now().UTC(), first.CreatedAt, 5*time.Second)

	second, err := repo.Create(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestSQLRepository_Create_DuplicateEmailLeavesNoRow(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Impostor", "alice@example.com")
	require.ErrorIs(t, err, user.ErrEmailExists)

	users, err := repo.List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Alice", users[0].Name)
}

func TestSQLRepository_GetByID_NotFound(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))

	found, err := repo.GetByID(context.Background(), 12345)
	require.Nil(t, found)
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestSQLRepository_Update_SparseFieldsOnly(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, map[string]any{"name": "Alicia"})
	require.NoError(t, err)
	require.Equal(t, "Alicia", updated.Name)
	require.Equal(t, created.Email, updated.Email)
	require.Equal(t, created.ID, updated.ID)
}

func TestSQLRepository_Update_EmptyFieldsIsNoOp(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, created.Name, updated.Name)
	require.Equal(t, created.Email, updated.Email)
}

func TestSQLRepository_Update_NotFound(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))

	updated, err := repo.Update(context.Background(), 999, map[string]any{"name": "Ghost"})
	require.Nil(t, updated)
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestSQLRepository_Update_DuplicateEmail(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	bob, err := repo.Create(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)

	_, err = repo.Update(ctx, bob.ID, map[string]any{"email": "alice@example.com"})
	require.ErrorIs(t, err, user.ErrEmailExists)

	// The failed transaction must not have changed the row.
	unchanged, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", unchanged.Email)
}

func TestSQLRepository_List_SkipAndLimit(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	emails := []string{"u1@example.com", "u2@example.com", "u3@example.com", "u4@example.com", "u5@example.com"}
	for i, email := range emails {
		_, err := repo.Create(ctx, "User", email)
		require.NoError(t, err, "failed to create user %d", i+1)
	}

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	got := []string{page[0].Email, page[1].Email}
	want := []string{"u3@example.com", "u4@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected page contents (-want +got):\n%s", diff)
	}
}

func TestSQLRepository_List_EmptyStore(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))

	users, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestSQLRepository_Delete_SecondCallNotFound(t *testing.T) {
	repo := user.NewSQLRepository(newTestStore(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.ErrorIs(t, repo.Delete(ctx, created.ID), user.ErrNotFound)

	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
}
