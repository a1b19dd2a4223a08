package database

import (
	"context"
	"io"

	"github.com/ds124wfegd/image-transform/internal/entity"
)

// MasterRepository gives read access to master images. A missing master is
// reported as entity.ErrMasterNotFound.
type MasterRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.MasterImage, error)
	// FindMeta is FindByID without Content.
	FindMeta(ctx context.Context, id int64) (*entity.MasterImage, error)
}

// MasterWriter is implemented by repositories that can also store masters.
type MasterWriter interface {
	Save(ctx context.Context, master *entity.MasterImage, content io.Reader) error
}

var (
	_ MasterRepository = (*FileMasterRepository)(nil)
	_ MasterWriter     = (*FileMasterRepository)(nil)
	_ MasterRepository = (*PostgresMasterRepository)(nil)
	_ MasterWriter     = (*PostgresMasterRepository)(nil)
)
