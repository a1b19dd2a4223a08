package service

import (
	"context"
	"io"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/command"
)

type RenditionService interface {
	// Transform returns the cached rendition of master id for the given
	// command text and extension, rendering it first if needed.
	Transform(ctx context.Context, id int64, commands, extension string) (*entity.Rendition, error)
	// Warm renders a rendition ahead of the first request.
	Warm(ctx context.Context, task entity.WarmTask) error
	// TransformCommand returns a URL builder bound to master id.
	TransformCommand(ctx context.Context, id int64) (*command.Builder, error)
	// SaveMaster stores or replaces a master. Renditions cached before the
	// write become stale.
	SaveMaster(ctx context.Context, master *entity.MasterImage, content io.Reader) error
}

// Renderer turns master bytes into rendition bytes.
type Renderer interface {
	Render(master []byte, chain *command.Chain, extension string) ([]byte, error)
}

type Config struct {
	Tenant      string
	RoutePrefix string
	BaseURL     string
}
