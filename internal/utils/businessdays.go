package utils

import "time"

// AddBusinessDays returns t moved forward by n weekdays. Saturdays and
// Sundays are skipped; public holidays are not considered. The time of day
// is preserved.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}
