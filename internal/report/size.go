package report

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SizeLabel renders a byte count in decimal units: "999 B", "1.5 kB", "2.3 MB".
func SizeLabel(bytes int64) string {
	if bytes < 1000 {
		return fmt.Sprintf("%d B", max(bytes, 0))
	}
	value, prefix := humanize.ComputeSI(float64(bytes))
	if prefix == "" {
		return fmt.Sprintf("%.1f B", value)
	}
	return fmt.Sprintf("%.1f %sB", value, prefix)
}
