package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/schollz/logger"

	"bandbridge/models"
	"bandbridge/theory"
)

const errKeyModeRequired = "Key and mode are required"

// ScaleChords returns the seven scale-degree triads of a key and mode.
func ScaleChords(c *gin.Context) {
	var req models.ScaleChordsRequest
	if !bindKeyMode(c, &req, &req) {
		return
	}

	chords, err := theory.ScaleChords(req.Key, req.Mode)
	if err != nil {
		scaleFailed(c, req.Mode, err)
		return
	}
	log.Debugf("Generated chords: %v", chords)
	c.JSON(http.StatusOK, models.ChordsResponse{Chords: chords})
}

// ScaleChordsMidi renders the same seven triads as a Standard MIDI File.
func ScaleChordsMidi(c *gin.Context) {
	var req models.ScaleMidiRequest
	if !bindKeyMode(c, &req, &req.ScaleChordsRequest) {
		return
	}

	sc, err := theory.NewScale(req.Key, req.Mode)
	if err != nil {
		scaleFailed(c, req.Mode, err)
		return
	}
	if req.Pattern != "" && !theory.Patterns[req.Pattern] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown pattern: %s", req.Pattern)})
		return
	}

	midi, err := theory.RenderMIDI(sc.Chords(), theory.MidiOptions{
		Tempo:   req.Tempo,
		Beats:   req.Beats,
		Pattern: req.Pattern,
	})
	if err != nil {
		log.Errorf("render midi: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.mid"`, sc.Tonic, sc.Mode))
	c.Data(http.StatusOK, "audio/midi", midi)
}

// bindKeyMode decodes the body into dst and checks key and mode on km. A body
// that does not parse is reported the same way as a missing field.
func bindKeyMode(c *gin.Context, dst any, km *models.ScaleChordsRequest) bool {
	err := c.ShouldBindJSON(dst)
	log.Debugf("Received request with key: %s, mode: %s", km.Key, km.Mode)
	if err != nil || km.Key == "" || km.Mode == "" {
		log.Error(errKeyModeRequired)
		c.JSON(http.StatusBadRequest, gin.H{"error": errKeyModeRequired})
		return false
	}
	return true
}

func scaleFailed(c *gin.Context, mode string, err error) {
	msg := err.Error()
	if errors.Is(err, theory.ErrUnsupportedMode) {
		msg = "Unsupported mode: " + mode
	}
	log.Errorf("scale chords: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
