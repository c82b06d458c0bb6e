package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bandbridge/analysis"
	"bandbridge/config"
	"bandbridge/scratch"
)

// Banner is the body of GET /.
const Banner = "Librosa, MADMOM, and Aubio API"

// multipartMemory caps how much of an upload gin keeps in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// Handler carries what the upload endpoints need. The scale endpoints are
// plain funcs.
type Handler struct {
	cfg      config.Config
	store    *scratch.Store
	analyzer analysis.Analyzer
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg config.Config, store *scratch.Store, an analysis.Analyzer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.MaxMultipartMemory = min(cfg.MaxUploadBytes, multipartMemory)

	h := &Handler{cfg: cfg, store: store, analyzer: an}

	r.GET("/", Home)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/librosa/chroma", h.Chroma)
	r.POST("/madmom/beats", h.Beats)
	r.POST("/librosa/tempo", h.Tempo)
	r.POST("/aubio/tempo", h.AubioTempo)
	r.POST("/librosa/key", h.Key)

	scale := r.Group("/scale")
	{
		scale.POST("/chords", ScaleChords)
		scale.POST("/chords/midi", ScaleChordsMidi)
	}
	return r
}

// Home is a liveness banner.
func Home(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}
