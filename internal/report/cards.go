package report

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RemovalDelay is how long after a removal the detach hook fires. The card is
// gone from the collection immediately; the delay only paces visual teardown.
const RemovalDelay = 150 * time.Millisecond

// CardData is the content of one card without its identity.
type CardData struct {
	PreviewImage string
	PrintImage   string
	Caption      string
	SizeLabel    string
}

// PhotoCard is one photo slot in a report.
type PhotoCard struct {
	ID           uuid.UUID `json:"-"`
	PreviewImage string    `json:"image"`
	PrintImage   string    `json:"printImage"`
	Caption      string    `json:"caption"`
	SizeLabel    string    `json:"size"`
}

// Data strips the identity from the card.
func (c PhotoCard) Data() CardData {
	return CardData{
		PreviewImage: c.PreviewImage,
		PrintImage:   c.PrintImage,
		Caption:      c.Caption,
		SizeLabel:    c.SizeLabel,
	}
}

// IsEmpty reports a card with no image in either slot and no caption.
func (c PhotoCard) IsEmpty() bool {
	return c.PreviewImage == "" && c.PrintImage == "" && c.Caption == ""
}

// HasImage reports whether either image slot is populated.
func (c PhotoCard) HasImage() bool {
	return c.PreviewImage != "" || c.PrintImage != ""
}

// Cards is an ordered collection of photo cards. It is not safe for
// concurrent use; callers serialise access.
type Cards struct {
	items  []*PhotoCard
	detach func(uuid.UUID)
}

// NewCards builds a collection seeded with data, in order.
func NewCards(data []CardData) *Cards {
	c := &Cards{}
	c.Reset(data)
	return c
}

// OnDetach registers a hook fired RemovalDelay after each removal.
func (c *Cards) OnDetach(fn func(uuid.UUID)) {
	c.detach = fn
}

// Len returns the number of cards.
func (c *Cards) Len() int { return len(c.items) }

// Append adds a card at the end.
func (c *Cards) Append(data CardData) *PhotoCard {
	return c.InsertAt(len(c.items), data)
}

// InsertAt inserts a card at index, clamped to [0, Len].
func (c *Cards) InsertAt(index int, data CardData) *PhotoCard {
	index = min(max(index, 0), len(c.items))
	card := newCard(data)
	c.items = slices.Insert(c.items, index, card)
	return card
}

// InsertAfter inserts a card directly after the card with id anchor. A nil or
// absent anchor inserts at the front. Chaining each new card as the next
// anchor places a batch ahead of the existing cards in batch order.
func (c *Cards) InsertAfter(anchor uuid.UUID, data CardData) *PhotoCard {
	index := 0
	if anchor != uuid.Nil {
		if i := c.IndexOf(anchor); i >= 0 {
			index = i + 1
		}
	}
	return c.InsertAt(index, data)
}

// IndexOf returns the position of the card with id, or -1.
func (c *Cards) IndexOf(id uuid.UUID) int {
	return slices.IndexFunc(c.items, func(card *PhotoCard) bool { return card.ID == id })
}

// Find returns a copy of the card with id.
func (c *Cards) Find(id uuid.UUID) (PhotoCard, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return *c.items[i], true
	}
	return PhotoCard{}, false
}

// At returns a copy of the card at index.
func (c *Cards) At(index int) (PhotoCard, bool) {
	if index < 0 || index >= len(c.items) {
		return PhotoCard{}, false
	}
	return *c.items[index], true
}

// Remove deletes the card with id. Removing an absent card is a no-op.
func (c *Cards) Remove(id uuid.UUID) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	if fn := c.detach; fn != nil {
		time.AfterFunc(RemovalDelay, func() { fn(id) })
	}
	return true
}

// Replace swaps the image slots and size label of the card with id in place.
// The caption and position are untouched.
func (c *Cards) Replace(id uuid.UUID, data CardData) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	card := c.items[i]
	card.PreviewImage = data.PreviewImage
	card.PrintImage = data.PrintImage
	card.SizeLabel = data.SizeLabel
	return true
}

// SetCaption updates the caption of the card with id.
func (c *Cards) SetCaption(id uuid.UUID, caption string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.items[i].Caption = caption
	return true
}

// Snapshot returns the cards in display order as values.
func (c *Cards) Snapshot() []PhotoCard {
	out := make([]PhotoCard, 0, len(c.items))
	for _, card := range c.items {
		out = append(out, *card)
	}
	return out
}

// Reset discards every card and seeds the collection with data.
func (c *Cards) Reset(data []CardData) {
	c.items = make([]*PhotoCard, 0, len(data))
	for _, d := range data {
		c.items = append(c.items, newCard(d))
	}
}

func newCard(data CardData) *PhotoCard {
	return &PhotoCard{
		ID:           uuid.New(),
		PreviewImage: data.PreviewImage,
		PrintImage:   data.PrintImage,
		Caption:      data.Caption,
		SizeLabel:    data.SizeLabel,
	}
}
