package database

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMasterRepositoryRoundTrip(t *testing.T) {
	repo := NewFileMasterRepository(storage.NewFileStorage(t.TempDir()))
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	master := &entity.MasterImage{ID: 10, Name: "logo.png", UpdatedAt: updated}
	require.NoError(t, repo.Save(context.Background(), master, bytes.NewReader([]byte{1, 2, 3})))

	found, err := repo.FindByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.ID)
	assert.Equal(t, "logo.png", found.Name)
	assert.Equal(t, []byte{1, 2, 3}, found.Content)
	assert.True(t, found.UpdatedAt.Equal(updated))
	assert.Equal(t, time.UTC, found.UpdatedAt.Location())
}

func TestFileMasterRepositoryNotFound(t *testing.T) {
	repo := NewFileMasterRepository(storage.NewFileStorage(t.TempDir()))

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, entity.ErrMasterNotFound)
	assert.True(t, entity.IsClientError(err))
}

func TestFileMasterRepositoryFallsBackToFileTime(t *testing.T) {
	st := storage.NewFileStorage(t.TempDir())
	repo := NewFileMasterRepository(st)

	require.NoError(t, st.Save(filepath.Join("original", "3"), strings.NewReader("raw")))
	mtime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.Chtimes(filepath.Join("original", "3"), mtime))

	found, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, found.Name)
	assert.True(t, found.UpdatedAt.Equal(mtime))
}

func TestFileMasterRepositorySaveStampsTime(t *testing.T) {
	repo := NewFileMasterRepository(storage.NewFileStorage(t.TempDir()))

	before := time.Now().UTC()
	master := &entity.MasterImage{ID: 1, Name: "a.jpg"}
	require.NoError(t, repo.Save(context.Background(), master, strings.NewReader("x")))

	assert.False(t, master.UpdatedAt.Before(before))
}

func TestFileMasterRepositoryFindMetaSkipsContent(t *testing.T) {
	repo := NewFileMasterRepository(storage.NewFileStorage(t.TempDir()))
	master := &entity.MasterImage{ID: 8, Name: "b.gif"}
	require.NoError(t, repo.Save(context.Background(), master, strings.NewReader("gif")))

	meta, err := repo.FindMeta(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "b.gif", meta.Name)
	assert.Nil(t, meta.Content)
	assert.True(t, meta.UpdatedAt.Equal(master.UpdatedAt))

	_, err = repo.FindMeta(context.Background(), 9)
	assert.ErrorIs(t, err, entity.ErrMasterNotFound)
}

// TestFileMasterRepositorySaveRollsBack: при ошибке записи метаданных
// оригинал удаляется
func TestFileMasterRepositorySaveRollsBack(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileMasterRepository(storage.NewFileStorage(dir))

	// каталог на месте файла метаданных не даёт выполнить rename
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata", "5.json", "blocker"), 0755))

	err := repo.Save(context.Background(), &entity.MasterImage{ID: 5, Name: "a.png"}, strings.NewReader("png"))
	require.Error(t, err)

	_, err = repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, entity.ErrMasterNotFound)
}
