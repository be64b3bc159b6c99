package window

import (
	"fmt"
	"time"

	"github.com/de-tools/hub-export/pkg/models/domain"
)

// Compute returns the reporting window for the week containing ref shifted
// weeksBack whole weeks into the past. Start is Monday 00:00:00 and End is
// Sunday 23:59:59, both in ref's location. Week and Year are taken from the
// shifted reference instant; near a year boundary the calendar year can lag
// the ISO week's year.
func Compute(ref time.Time, weeksBack int) (domain.ReportingWindow, error) {
	if weeksBack < 0 {
		return domain.ReportingWindow{}, fmt.Errorf("weeksBack must be >= 0, got %d", weeksBack)
	}

	shifted := ref.AddDate(0, 0, -7*weeksBack)

	// time.Weekday counts Sunday as 0; the reporting week starts on Monday.
	sinceMonday := (int(shifted.Weekday()) + 6) % 7
	monday := shifted.AddDate(0, 0, -sinceMonday)
	start := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, shifted.Location())

	// End is wall-clock Sunday 23:59:59. Built from date fields rather than
	// by adding a fixed duration, which would drift by an hour across a DST
	// transition inside the week.
	sunday := start.AddDate(0, 0, 6)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, shifted.Location())

	_, week := shifted.ISOWeek()

	return domain.ReportingWindow{
		Start: start,
		End:   end,
		Week:  week,
		Year:  shifted.Year(),
	}, nil
}
