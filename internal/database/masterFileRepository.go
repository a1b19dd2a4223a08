package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/storage"
)

// FileMasterRepository keeps masters on disk: content under original/<id> and
// metadata under metadata/<id>.json.
type FileMasterRepository struct {
	storage storage.FileStorage
}

type masterMetadata struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewFileMasterRepository(storage storage.FileStorage) *FileMasterRepository {
	return &FileMasterRepository{storage: storage}
}

func (r *FileMasterRepository) FindByID(ctx context.Context, id int64) (*entity.MasterImage, error) {
	master, err := r.FindMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	reader, err := r.storage.Get(r.getOriginalPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", entity.ErrMasterNotFound, id)
		}
		return nil, err
	}
	defer reader.Close()

	if master.Content, err = io.ReadAll(reader); err != nil {
		return nil, err
	}
	return master, nil
}

func (r *FileMasterRepository) FindMeta(ctx context.Context, id int64) (*entity.MasterImage, error) {
	info, err := r.storage.Stat(r.getOriginalPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", entity.ErrMasterNotFound, id)
		}
		return nil, err
	}

	master := &entity.MasterImage{ID: id}

	meta, err := r.readMetadata(id)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		master.Name = meta.Name
		master.UpdatedAt = meta.UpdatedAt.UTC()
	}

	// без метаданных берем время изменения самого файла
	if master.UpdatedAt.IsZero() {
		master.UpdatedAt = info.ModTime().UTC()
	}

	return master, nil
}

// Save stores content and metadata. A zero UpdatedAt is set to now.
func (r *FileMasterRepository) Save(ctx context.Context, master *entity.MasterImage, content io.Reader) error {
	if master.UpdatedAt.IsZero() {
		master.UpdatedAt = time.Now().UTC()
	}

	if err := r.storage.Save(r.getOriginalPath(master.ID), content); err != nil {
		return err
	}

	data, err := json.Marshal(masterMetadata{ID: master.ID, Name: master.Name, UpdatedAt: master.UpdatedAt})
	if err == nil {
		err = r.storage.WriteAtomic(r.getMetadataPath(master.ID), data)
	}
	if err != nil {
		// без метаданных оригинал не должен оставаться видимым
		if delErr := r.storage.Delete(r.getOriginalPath(master.ID)); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}
	return nil
}

func (r *FileMasterRepository) readMetadata(id int64) (*masterMetadata, error) {
	reader, err := r.storage.Get(r.getMetadataPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	var meta masterMetadata
	if err := json.NewDecoder(reader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding metadata of master %d: %w", id, err)
	}
	return &meta, nil
}

func (r *FileMasterRepository) getOriginalPath(id int64) string {
	return filepath.Join("original", strconv.FormatInt(id, 10))
}

func (r *FileMasterRepository) getMetadataPath(id int64) string {
	return filepath.Join("metadata", strconv.FormatInt(id, 10)+".json")
}
