package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"photoreport/internal/ingest"
	"photoreport/internal/logging"
	"photoreport/internal/printview"
	"photoreport/internal/report"
	"photoreport/internal/services"
	"photoreport/internal/storage"
)

// Options wires a Controller's collaborators.
type Options struct {
	Store            storage.Store
	Pipeline         *ingest.Pipeline
	PlaceholderSlots int
	Logger           *slog.Logger
}

// Controller owns one report and serialises access to it.
type Controller struct {
	mu       sync.Mutex
	meta     report.Metadata
	cards    *report.Cards
	store    storage.Store
	pipeline *ingest.Pipeline
	slots    int
	logger   *slog.Logger
}

// New constructs a Controller holding a fresh report seeded with
// placeholder cards.
func New(opts Options) *Controller {
	slots := opts.PlaceholderSlots
	if slots <= 0 {
		slots = report.PlaceholderSlots
	}
	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = ingest.NewPipeline(nil, nil, opts.Logger)
	}
	return &Controller{
		cards:    report.NewCards(report.Placeholders(slots)),
		store:    opts.Store,
		pipeline: pipeline,
		slots:    slots,
		logger:   logging.NewComponentLogger(opts.Logger, "session"),
	}
}

// OnDetach registers a hook fired shortly after each card removal.
func (c *Controller) OnDetach(fn func(uuid.UUID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards.OnDetach(fn)
}

// Metadata returns the report header.
func (c *Controller) Metadata() report.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// SetMetadata replaces the report header.
func (c *Controller) SetMetadata(meta report.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = meta
}

// UpdateMetadata applies fn to the report header under the lock.
func (c *Controller) UpdateMetadata(fn func(*report.Metadata)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.meta)
}

// Key returns the persistence key for the current client and property.
func (c *Controller) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return storage.Key(c.meta.ClientName, c.meta.PropertyName)
}

// Cards returns the cards in display order.
func (c *Controller) Cards() []report.PhotoCard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cards.Snapshot()
}

// Snapshot returns the full report as it would be saved.
func (c *Controller) Snapshot() *report.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &report.Report{Metadata: c.meta, Photos: c.cards.Snapshot()}
}

// Ingest runs a bulk batch through the pipeline. Successful photos are
// inserted ahead of the cards that existed before the batch, in input order.
func (c *Controller) Ingest(ctx context.Context, files []ingest.File) []ingest.Outcome {
	var last uuid.UUID
	insert := func(data report.CardData) *report.PhotoCard {
		c.mu.Lock()
		defer c.mu.Unlock()
		card := c.cards.InsertAfter(last, data)
		last = card.ID
		copied := *card
		return &copied
	}

	ctx = services.WithReportKey(ctx, c.Key())
	outcomes := c.pipeline.Run(ctx, files, insert)
	added := len(ingest.Added(outcomes))
	logging.WithContext(ctx, c.logger).Info("batch ingested",
		logging.Int("files", len(files)),
		logging.Int("added", added),
		logging.Int("failed", len(ingest.Failed(outcomes))),
	)
	return outcomes
}

// AddCard appends an empty card.
func (c *Controller) AddCard() report.PhotoCard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.cards.Append(report.CardData{})
}

// ReplaceImage re-selects the photo of one card in place. The file is not
// validated; any processing error is returned and the card is left as is.
func (c *Controller) ReplaceImage(ctx context.Context, id uuid.UUID, f ingest.File) (report.PhotoCard, error) {
	if _, ok := c.find(id); !ok {
		return report.PhotoCard{}, ErrCardNotFound
	}
	data, err := c.pipeline.Process(services.WithReportKey(ctx, c.Key()), f)
	if err != nil {
		return report.PhotoCard{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cards.Replace(id, data) {
		return report.PhotoCard{}, ErrCardNotFound
	}
	card, _ := c.cards.Find(id)
	return card, nil
}

// SetCaption updates the caption of one card.
func (c *Controller) SetCaption(id uuid.UUID, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cards.SetCaption(id, caption) {
		return ErrCardNotFound
	}
	return nil
}

// RemoveCard deletes one card.
func (c *Controller) RemoveCard(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cards.Remove(id) {
		return ErrCardNotFound
	}
	return nil
}

// CardAt returns the card at a zero-based display index.
func (c *Controller) CardAt(index int) (report.PhotoCard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cards.At(index)
}

// Save writes the whole report under the current key. A failed save leaves
// the in-memory report untouched.
func (c *Controller) Save(ctx context.Context) error {
	if c.store == nil {
		return services.Wrap(services.ErrConfiguration, "save", "", "no storage configured", nil)
	}
	snapshot := c.Snapshot()
	key := storage.Key(snapshot.ClientName, snapshot.PropertyName)
	ctx = services.WithReportKey(ctx, key)
	logger := logging.WithContext(ctx, c.logger)

	if err := c.store.Put(ctx, key, snapshot); err != nil {
		logging.WarnWithContext(logger, "report save failed", "save_"+services.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "free space or raise [storage] quota_bytes"),
			logging.String(logging.FieldImpact, "report was not saved; in-memory edits are kept"),
		)
		return err
	}
	logger.Info("report saved", logging.Int("photos", len(snapshot.Photos)))
	return nil
}

// Load replaces the report with the one stored under the current key. When
// nothing is stored ErrLoadNotFound is returned; when the stored report cannot
// be read ErrLoadFailed is returned. The report is left unchanged in both
// cases. A stored report without photos is seeded with placeholder cards.
func (c *Controller) Load(ctx context.Context) error {
	if c.store == nil {
		return services.Wrap(services.ErrConfiguration, "load", "", "no storage configured", nil)
	}
	key := c.Key()
	ctx = services.WithReportKey(ctx, key)
	logger := logging.WithContext(ctx, c.logger)

	loaded, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logging.WarnWithContext(logger, "report lookup failed", "load_"+services.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the storage backend; the saved report may be corrupt"),
			logging.String(logging.FieldImpact, "current report kept; nothing was loaded"),
		)
		return services.Wrap(ErrLoadFailed, "load", key, "", err)
	}
	if loaded == nil {
		return services.Wrap(ErrLoadNotFound, "load", key, "", nil)
	}

	data := loaded.CardData()
	if len(data) == 0 {
		data = report.Placeholders(c.slots)
	}

	c.mu.Lock()
	c.meta = loaded.Metadata
	c.cards.Reset(data)
	c.mu.Unlock()

	logger.Info("report loaded", logging.Int("photos", len(loaded.Photos)))
	return nil
}

// Clear resets every field and reseeds the placeholder cards.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = report.Metadata{}
	c.cards.Reset(report.Placeholders(c.slots))
}

// Print prepares the print document, waiting for every image, and hands it
// to printer. The prepared document is returned for callers that want to
// report on it.
func (c *Controller) Print(ctx context.Context, printer printview.Printer) (*printview.Document, error) {
	snapshot := c.Snapshot()
	doc, err := printview.Prepare(ctx, snapshot.Metadata, snapshot.Photos)
	if err != nil {
		return nil, err
	}
	if printer != nil {
		if err := printer.Print(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (c *Controller) find(id uuid.UUID) (report.PhotoCard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cards.Find(id)
}
