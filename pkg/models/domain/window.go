package domain

import (
	"fmt"
	"time"
)

// ReportingWindow is the Monday-Sunday interval a single run reports on.
// Week and Year follow the (possibly offset) reference instant the window
// was computed from, not Start.
type ReportingWindow struct {
	Start time.Time
	End   time.Time
	Week  int
	Year  int
}

// ArtifactName returns the deterministic workbook file name for the window,
// e.g. "Egenbefordring_10_04032024_10032024.xlsx".
func (w ReportingWindow) ArtifactName(prefix string) string {
	return fmt.Sprintf("%s_%d_%s_%s.xlsx",
		prefix, w.Week, w.Start.Format("02012006"), w.End.Format("02012006"))
}

// SheetName returns the sheet the window's rows accumulate into, e.g. "10_2024".
func (w ReportingWindow) SheetName() string {
	return fmt.Sprintf("%d_%d", w.Week, w.Year)
}
