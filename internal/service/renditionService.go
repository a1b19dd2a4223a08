package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/image-transform/internal/database"
	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/cache"
	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/ds124wfegd/image-transform/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

const defaultContentType = "application/octet-stream"

type renditionService struct {
	repo     database.MasterRepository
	gate     *cache.Gate
	renderer Renderer
	producer kafka.Producer
	cfg      Config
}

func NewRenditionService(repo database.MasterRepository, gate *cache.Gate, renderer Renderer, producer kafka.Producer, cfg Config) RenditionService {
	if producer == nil {
		producer = kafka.NewMockProducer()
	}
	return &renditionService{
		repo:     repo,
		gate:     gate,
		renderer: renderer,
		producer: producer,
		cfg:      cfg,
	}
}

func (s *renditionService) Transform(ctx context.Context, id int64, commands, extension string) (*entity.Rendition, error) {
	if extension == "" {
		return nil, fmt.Errorf("%w: empty extension", entity.ErrEncode)
	}

	// команды проверяются до любого обращения к хранилищу
	chain, err := command.Parse(commands)
	if err != nil {
		return nil, err
	}

	meta, err := s.repo.FindMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	key := cache.Key{Tenant: s.cfg.Tenant, ObjectID: id, Chain: chain, Extension: extension}
	res, err := s.gate.Resolve(ctx, key, meta.UpdatedAt, func() ([]byte, error) {
		master, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.renderer.Render(master.Content, chain, extension)
	})
	if err != nil {
		return nil, err
	}

	if res.Regenerated {
		s.publish(ctx, id, chain, extension, res.Path)
	}

	return &entity.Rendition{
		Path:        res.Path,
		Extension:   extension,
		ContentType: contentType(extension),
		Regenerated: res.Regenerated,
	}, nil
}

func (s *renditionService) Warm(ctx context.Context, task entity.WarmTask) error {
	_, err := s.Transform(ctx, task.ObjectID, task.Commands, task.Extension)
	return err
}

func (s *renditionService) TransformCommand(ctx context.Context, id int64) (*command.Builder, error) {
	meta, err := s.repo.FindMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	b := command.NewBuilder(meta)
	if s.cfg.RoutePrefix != "" {
		b.WithPrefix(s.cfg.RoutePrefix)
	}
	if s.cfg.BaseURL != "" {
		b.WithBaseURL(s.cfg.BaseURL)
	}
	return b, nil
}

func (s *renditionService) SaveMaster(ctx context.Context, master *entity.MasterImage, content io.Reader) error {
	writer, ok := s.repo.(database.MasterWriter)
	if !ok {
		return entity.ErrReadOnlyStorage
	}
	if _, err := imaging.FormatFromExtension(path.Ext(master.Name)); err != nil {
		return fmt.Errorf("%w: %q", entity.ErrInvalidImageType, master.Name)
	}

	if err := writer.Save(ctx, master, content); err != nil {
		return fmt.Errorf("saving master %d: %w", master.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"object_id":  master.ID,
		"name":       master.Name,
		"updated_at": master.UpdatedAt,
	}).Info("Master saved")
	return nil
}

func (s *renditionService) publish(ctx context.Context, id int64, chain *command.Chain, extension, path string) {
	event := entity.RenditionEvent{
		Tenant:      s.cfg.Tenant,
		ObjectID:    id,
		Commands:    chain.String(),
		Extension:   extension,
		Path:        path,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.producer.PublishRendition(ctx, event); err != nil {
		logrus.WithError(err).WithField("object_id", id).Warn("Failed to publish rendition event")
	}
}

func contentType(extension string) string {
	if t := mime.TypeByExtension("." + extension); t != "" {
		return t
	}
	return defaultContentType
}
