package main

import (
	"fmt"
	"os"

	log "github.com/schollz/logger"
	"github.com/spf13/cobra"

	"bandbridge/analysis"
	"bandbridge/config"
	"bandbridge/handlers"
	"bandbridge/scratch"
)

var (
	flagAddr       string
	flagScratchDir string
	flagLogLevel   string
	flagFFmpeg     string
	flagAubio      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bandbridge-audio",
	Short: "HTTP gateway for chroma, beat, tempo, key and scale-chord analysis",
	Long: `Serves the audio analysis API. Settings come from the environment
(PORT, ADDR, SCRATCH_DIR, LOG_LEVEL, CORS_ORIGINS, FFMPEG_PATH, AUBIO_PATH,
MAX_UPLOAD_MB); flags override them.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "Listen address (default 0.0.0.0:6000)")
	rootCmd.Flags().StringVar(&flagScratchDir, "scratch-dir", "", "Directory uploads are staged under")
	rootCmd.Flags().StringVarP(&flagLogLevel, "log-level", "l", "", "debug, info, warn or error")
	rootCmd.Flags().StringVar(&flagFFmpeg, "ffmpeg", "", "Path to the ffmpeg binary")
	rootCmd.Flags().StringVar(&flagAubio, "aubio", "", "Path to the aubio binary")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagScratchDir != "" {
		cfg.ScratchDir = flagScratchDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagFFmpeg != "" {
		cfg.FFmpegPath = flagFFmpeg
	}
	if flagAubio != "" {
		cfg.AubioPath = flagAubio
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.SetLevel(cfg.LogLevel)

	store, err := scratch.NewStore(cfg.ScratchDir)
	if err != nil {
		return err
	}
	r := handlers.NewRouter(cfg, store, analysis.New(cfg.FFmpegPath, cfg.AubioPath))

	log.Infof("listening on %s, scratch at %s", cfg.Addr, store.Root())
	if err := r.Run(cfg.Addr); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}
