package transport

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadMaster stores the multipart "image" file as master :id. Cached
// renditions of an older version are regenerated on their next request.
func (h *RenditionHandler) UploadMaster(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	content, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer content.Close()

	master := &entity.MasterImage{ID: id, Name: filepath.Base(file.Filename)}
	if err := h.service.SaveMaster(c.Request.Context(), master, content); err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidImageType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrReadOnlyStorage):
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		default:
			logrus.WithField("id", id).WithError(err).Error("Cannot save master")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, master)
}
