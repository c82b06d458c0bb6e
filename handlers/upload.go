package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/schollz/logger"

	"bandbridge/scratch"
)

// stage validates the "file" field and writes it to scratch. When it returns
// nil the response has already been written and nothing is on disk.
// Callers defer Release on the result immediately.
func (h *Handler) stage(c *gin.Context) *scratch.Upload {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			log.Debugf("upload larger than %d bytes", tooBig.Limit)
			c.String(http.StatusBadRequest, "File too large")
		case hasEmptyFilePart(c.Request):
			// multipart keeps a part with filename="" as a plain value
			log.Debug("No selected file")
			c.String(http.StatusBadRequest, "No selected file")
		default:
			log.Debugf("No file part in request: %v", err)
			c.String(http.StatusBadRequest, "No file part")
		}
		return nil
	}
	if strings.TrimSpace(fh.Filename) == "" {
		log.Debug("No selected file")
		c.String(http.StatusBadRequest, "No selected file")
		return nil
	}

	f, err := fh.Open()
	if err != nil {
		log.Errorf("open upload %s: %v", fh.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	defer f.Close()

	u, err := h.store.Stage(fh.Filename, f)
	if err != nil {
		log.Errorf("stage upload %s: %v", fh.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	return u
}

func hasEmptyFilePart(r *http.Request) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0
}
