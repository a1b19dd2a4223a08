package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TransformStaticFile serves <prefix>/:id/<commands>.<extension>.
func (h *RenditionHandler) TransformStaticFile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid file id"})
		return
	}

	commands, extension, ok := splitExtension(c.Param("path"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing extension"})
		return
	}

	rendition, err := h.service.Transform(c.Request.Context(), id, commands, extension)
	if err != nil {
		if entity.IsClientError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logrus.WithFields(logrus.Fields{
			"id":        id,
			"commands":  commands,
			"extension": extension,
		}).WithError(err).Error("Rendition failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Header("Content-Type", rendition.ContentType)
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(h.maxAge.Seconds())))
	c.File(rendition.Path)
}

// splitExtension splits "/<commands>.<ext>" at the last dot.
func splitExtension(path string) (string, string, bool) {
	path = strings.TrimPrefix(path, "/")
	dot := strings.LastIndex(path, ".")
	if dot <= 0 || dot == len(path)-1 {
		return "", "", false
	}
	return path[:dot], path[dot+1:], true
}
