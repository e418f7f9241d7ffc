package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"photoreport/internal/logging"
	"photoreport/internal/raster"
	"photoreport/internal/report"
	"photoreport/internal/services"
)

// Transformer derives the embedded preview and print variants.
type Transformer interface {
	Variants(ctx context.Context, data []byte, mediaType string) (raster.Variants, error)
}

// Outcome records what happened to one input file of a batch.
type Outcome struct {
	Input File
	Card  *report.PhotoCard
	Err   error
}

// Pipeline runs files through validation, normalization, and transformation.
type Pipeline struct {
	normalizer  *Normalizer
	transformer Transformer
	logger      *slog.Logger
}

// NewPipeline wires the stages together.
func NewPipeline(normalizer *Normalizer, transformer Transformer, logger *slog.Logger) *Pipeline {
	if normalizer == nil {
		normalizer = NewNormalizer(nil, 0)
	}
	if transformer == nil {
		transformer = raster.NewTransformer(raster.DefaultOptions())
	}
	return &Pipeline{
		normalizer:  normalizer,
		transformer: transformer,
		logger:      logging.NewComponentLogger(logger, "ingest"),
	}
}

// Process normalizes and transforms one file without validating it. The size
// label reflects the normalized payload, before any downscale.
func (p *Pipeline) Process(ctx context.Context, f File) (report.CardData, error) {
	ctx = services.WithFile(ctx, f.Name)

	normalized, err := p.normalizer.Normalize(services.WithStage(ctx, "normalize"), f)
	if err != nil {
		return report.CardData{}, err
	}

	variants, err := p.transformer.Variants(services.WithStage(ctx, "transform"), normalized.Data, normalized.Type)
	if err != nil {
		return report.CardData{}, fmt.Errorf("transform %s: %w", normalized.Name, err)
	}

	return report.CardData{
		PreviewImage: variants.PreviewURI,
		PrintImage:   variants.PrintURI,
		SizeLabel:    report.SizeLabel(normalized.Size),
	}, nil
}

// Run processes files strictly in order. Non-images are skipped silently;
// any other failure is logged and recorded while the batch continues. insert
// is called once per successful file, in input order, and its result is
// recorded as the outcome's card. Cancellation is observed between files.
func (p *Pipeline) Run(ctx context.Context, files []File, insert func(report.CardData) *report.PhotoCard) []Outcome {
	outcomes := make([]Outcome, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Input: f, Err: err})
			continue
		}
		outcomes = append(outcomes, p.runOne(ctx, f, insert))
	}
	return outcomes
}

func (p *Pipeline) runOne(ctx context.Context, f File, insert func(report.CardData) *report.PhotoCard) Outcome {
	logger := logging.WithContext(services.WithFile(ctx, f.Name), p.logger)

	if !IsImage(f) {
		logger.Debug("skipping non-image file", logging.String("type", f.Type))
		return Outcome{Input: f, Err: services.Wrap(ErrNotAnImage, "validate", f.Name, "", nil)}
	}

	started := time.Now()
	data, err := p.Process(ctx, f)
	if err != nil {
		logging.WarnWithContext(logger, "skipping file (could not read image)", "ingest_"+services.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "file was not added to the report"),
		)
		return Outcome{Input: f, Err: err}
	}

	var card *report.PhotoCard
	if insert != nil {
		card = insert(data)
	}
	logger.Info("photo added",
		logging.String("size", data.SizeLabel),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Outcome{Input: f, Card: card}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, ErrConversionUnavailable):
		return "install libheif (heif-convert) or set [heic] converter"
	case errors.Is(err, ErrConversion):
		return "re-export the photo as JPEG and try again"
	case errors.Is(err, raster.ErrDecode):
		return "file is corrupt or in an unsupported encoding"
	default:
		return "check logs for details"
	}
}

// Added returns the cards created by a batch, in input order.
func Added(outcomes []Outcome) []*report.PhotoCard {
	var out []*report.PhotoCard
	for _, o := range outcomes {
		if o.Err == nil && o.Card != nil {
			out = append(out, o.Card)
		}
	}
	return out
}

// Failed returns the outcomes that did not produce a card, excluding silently
// skipped non-images.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil && !errors.Is(o.Err, ErrNotAnImage) {
			out = append(out, o)
		}
	}
	return out
}
