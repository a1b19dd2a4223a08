package transport

import (
	"time"

	"github.com/ds124wfegd/image-transform/internal/service"
)

type RenditionHandler struct {
	service service.RenditionService
	maxAge  time.Duration
}

func NewRenditionHandler(service service.RenditionService, maxAge time.Duration) *RenditionHandler {
	return &RenditionHandler{service: service, maxAge: maxAge}
}
