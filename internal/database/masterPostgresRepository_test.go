package database

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/postgres"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB подключается к базе из TRANSFORM_TEST_POSTGRES_DSN
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TRANSFORM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRANSFORM_TEST_POSTGRES_DSN is not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, postgres.RunMigrations(ctx, db))
	return db
}

func TestPostgresMasterRepositorySaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresMasterRepository(db)
	ctx := context.Background()

	id := time.Now().UnixNano() % 1_000_000_000
	t.Cleanup(func() { db.Exec(`DELETE FROM static_files WHERE id = $1`, id) })

	master := &entity.MasterImage{ID: id, Name: "photo.png"}
	require.NoError(t, repo.Save(ctx, master, bytes.NewReader([]byte{1, 2, 3})))
	assert.False(t, master.UpdatedAt.IsZero())
	first := master.UpdatedAt

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", got.Name)
	assert.Equal(t, []byte{1, 2, 3}, got.Content)
	assert.True(t, got.UpdatedAt.Equal(first))

	meta, err := repo.FindMeta(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, meta.Content)

	// повторное сохранение обновляет write_date
	require.NoError(t, repo.Save(ctx, &entity.MasterImage{ID: id, Name: "photo.png"}, bytes.NewReader([]byte{4})))
	meta, err = repo.FindMeta(ctx, id)
	require.NoError(t, err)
	assert.False(t, meta.UpdatedAt.Before(first))
}

func TestPostgresMasterRepositoryNullWriteDate(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresMasterRepository(db)
	ctx := context.Background()

	id := time.Now().UnixNano()%1_000_000_000 + 1
	t.Cleanup(func() { db.Exec(`DELETE FROM static_files WHERE id = $1`, id) })

	_, err := db.ExecContext(ctx, `INSERT INTO static_files (id, name, file_binary, write_date) VALUES ($1, 'a.png', '\x00', NULL)`, id)
	require.NoError(t, err)

	meta, err := repo.FindMeta(ctx, id)
	require.NoError(t, err)
	assert.True(t, meta.UpdatedAt.IsZero())

	_, err = repo.FindByID(ctx, -1)
	assert.ErrorIs(t, err, entity.ErrMasterNotFound)
}
