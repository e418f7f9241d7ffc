package report

// PlaceholderSlots is the number of empty cards seeded into a fresh report.
const PlaceholderSlots = 6

// Metadata holds the report header fields.
type Metadata struct {
	ClientName   string `json:"clientName"`
	PropertyName string `json:"propertyName"`
	ReportDate   string `json:"reportDate"`
	PreparedBy   string `json:"preparedBy"`
	Summary      string `json:"summary"`
}

// Report is the persisted aggregate. Photos keep their display order.
type Report struct {
	Metadata
	Photos []PhotoCard `json:"photos"`
}

// CardData returns the persisted photos as insertable card payloads.
func (r *Report) CardData() []CardData {
	if r == nil {
		return nil
	}
	out := make([]CardData, 0, len(r.Photos))
	for _, p := range r.Photos {
		out = append(out, p.Data())
	}
	return out
}

// Placeholders returns n empty card payloads.
func Placeholders(n int) []CardData {
	if n <= 0 {
		return nil
	}
	return make([]CardData, n)
}
