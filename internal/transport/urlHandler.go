package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type renditionURLResponse struct {
	ID       int64  `json:"id"`
	Commands string `json:"commands"`
	URL      string `json:"url"`
}

// RenditionURL answers GET /api/v1/files/:id/url?commands=...&ext=... with
// the URL that serves that rendition.
func (h *RenditionHandler) RenditionURL(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	chain, err := command.Parse(c.Query("commands"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	builder, err := h.service.TransformCommand(c.Request.Context(), id)
	if err != nil {
		if entity.IsClientError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithField("id", id).WithError(err).Error("Cannot build rendition url")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	for _, op := range chain.Operations() {
		builder.Chain().Append(op.Kind, op.Width, op.Height, op.Filter)
	}
	if ext := c.Query("ext"); ext != "" {
		builder.WithExtension(ext)
	}
	if err := builder.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, renditionURLResponse{
		ID:       id,
		Commands: builder.Chain().String(),
		URL:      builder.String(),
	})
}
