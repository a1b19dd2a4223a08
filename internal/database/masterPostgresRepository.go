package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/ds124wfegd/image-transform/internal/entity"
)

type PostgresMasterRepository struct {
	db *sql.DB
}

func NewPostgresMasterRepository(db *sql.DB) *PostgresMasterRepository {
	return &PostgresMasterRepository{db: db}
}

func (r *PostgresMasterRepository) FindByID(ctx context.Context, id int64) (*entity.MasterImage, error) {
	query := `SELECT id, name, file_binary, write_date FROM static_files WHERE id = $1`

	var (
		master    entity.MasterImage
		writeDate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&master.ID, &master.Name, &master.Content, &writeDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", entity.ErrMasterNotFound, id)
		}
		return nil, err
	}

	if writeDate.Valid {
		master.UpdatedAt = writeDate.Time.UTC()
	}
	return &master, nil
}

func (r *PostgresMasterRepository) FindMeta(ctx context.Context, id int64) (*entity.MasterImage, error) {
	query := `SELECT id, name, write_date FROM static_files WHERE id = $1`

	var (
		master    entity.MasterImage
		writeDate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&master.ID, &master.Name, &writeDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", entity.ErrMasterNotFound, id)
		}
		return nil, err
	}

	if writeDate.Valid {
		master.UpdatedAt = writeDate.Time.UTC()
	}
	return &master, nil
}

// Save inserts or replaces a master and stamps write_date with the database clock.
func (r *PostgresMasterRepository) Save(ctx context.Context, master *entity.MasterImage, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO static_files (id, name, file_binary, create_date, write_date)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, file_binary = EXCLUDED.file_binary, write_date = NOW()
		RETURNING write_date
	`
	if err := r.db.QueryRowContext(ctx, query, master.ID, master.Name, data).Scan(&master.UpdatedAt); err != nil {
		return err
	}
	master.UpdatedAt = master.UpdatedAt.UTC()
	master.Content = data
	return nil
}
