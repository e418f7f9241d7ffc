package session

import (
	"log/slog"
	"strings"

	"photoreport/internal/config"
	"photoreport/internal/ingest"
	"photoreport/internal/raster"
	"photoreport/internal/services/heifconvert"
	"photoreport/internal/storage"
)

// NewPipeline builds the ingestion pipeline described by cfg: the configured
// HEIC converter and the preview/print rendition bounds.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *ingest.Pipeline {
	var codec ingest.Codec
	if converter := strings.TrimSpace(cfg.HEIC.Converter); converter != "" {
		if client, err := heifconvert.New(converter); err == nil {
			codec = client
		}
	}
	transformer := raster.NewTransformer(raster.Options{
		PreviewMaxSide: cfg.Images.PreviewMaxSide,
		PreviewQuality: cfg.Images.PreviewQuality,
		PrintMaxSide:   cfg.Images.PrintMaxSide,
		PrintQuality:   cfg.Images.PrintQuality,
	})
	return ingest.NewPipeline(ingest.NewNormalizer(codec, cfg.HEIC.Quality), transformer, logger)
}

// NewFromConfig builds a Controller over store using the pipeline and
// placeholder count from cfg.
func NewFromConfig(cfg *config.Config, store storage.Store, logger *slog.Logger) *Controller {
	return New(Options{
		Store:            store,
		Pipeline:         NewPipeline(cfg, logger),
		PlaceholderSlots: cfg.Report.PlaceholderSlots,
		Logger:           logger,
	})
}
