package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/schollz/logger"

	"bandbridge/models"
)

// Each upload endpoint follows the same shape: stage, defer release, call one
// analyzer method, respond. The staged directory is gone after every return.

// Chroma returns the chroma grid of the uploaded file.
func (h *Handler) Chroma(c *gin.Context) {
	u := h.stage(c)
	if u == nil {
		return
	}
	defer u.Release()

	chroma, err := h.analyzer.Chroma(c.Request.Context(), u.Path())
	if err != nil {
		analysisFailed(c, "chroma", err)
		return
	}
	c.JSON(http.StatusOK, models.ChromaResponse{Chroma: chroma})
}

// Beats returns beat times of the uploaded file.
func (h *Handler) Beats(c *gin.Context) {
	u := h.stage(c)
	if u == nil {
		return
	}
	defer u.Release()

	beats, err := h.analyzer.Beats(c.Request.Context(), u.Path())
	if err != nil {
		analysisFailed(c, "beats", err)
		return
	}
	if beats == nil {
		beats = []float64{}
	}
	c.JSON(http.StatusOK, models.BeatsResponse{Beats: beats})
}

// Tempo returns the rounded tempo of the uploaded file.
func (h *Handler) Tempo(c *gin.Context) {
	u := h.stage(c)
	if u == nil {
		return
	}
	defer u.Release()

	bpm, err := h.analyzer.Tempo(c.Request.Context(), u.Path())
	if err != nil {
		analysisFailed(c, "tempo", err)
		return
	}
	c.JSON(http.StatusOK, models.TempoResponse{Tempo: bpm})
}

// AubioTempo converts the upload to WAV next to it and runs aubio on the copy.
func (h *Handler) AubioTempo(c *gin.Context) {
	u := h.stage(c)
	if u == nil {
		return
	}
	defer u.Release()

	ctx := c.Request.Context()
	wav := u.Derive(".wav")
	if err := h.analyzer.ConvertWAV(ctx, u.Path(), wav); err != nil {
		log.Errorf("Error converting file to WAV: %v", err)
		c.String(http.StatusInternalServerError, "Error converting file to WAV: %v", err)
		return
	}

	bpm, err := h.analyzer.AubioTempo(ctx, wav)
	if err != nil {
		log.Errorf("Error processing file with aubio: %v", err)
		c.String(http.StatusInternalServerError, "Error processing file with aubio: %v", err)
		return
	}
	c.JSON(http.StatusOK, models.AubioTempoResponse{Tempo: bpm})
}

// Key returns the detected tonic and mode of the uploaded file.
func (h *Handler) Key(c *gin.Context) {
	u := h.stage(c)
	if u == nil {
		return
	}
	defer u.Release()

	k, err := h.analyzer.Key(c.Request.Context(), u.Path())
	if err != nil {
		analysisFailed(c, "key", err)
		return
	}
	c.JSON(http.StatusOK, models.KeyResponse{Key: k.Key, Mode: k.Mode})
}

func analysisFailed(c *gin.Context, what string, err error) {
	log.Errorf("%s analysis failed: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
