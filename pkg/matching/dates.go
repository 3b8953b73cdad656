package matching

import (
	"math"
	"time"

	"github.com/pdplab/pdplab-go/pkg/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseDate attempts the ISO layouts a coder or the extractor may emit
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toleranceDays returns the matching window implied by the two certainty
// levels: zero means "any date matches" (either side is unknown),
// otherwise the approximate window applies when either side is
// approximate, and the certain window when both are certain or defaulted.
func (m *Matcher) toleranceDays(c1, c2 models.DateCertainty) (float64, bool) {
	if c1 == models.DateUnknown || c2 == models.DateUnknown {
		return 0, false
	}
	if c1 == models.DateApproximate || c2 == models.DateApproximate {
		return m.cal.Matching.ApproxToleranceDays, true
	}
	return m.cal.Matching.DateToleranceDays, true
}

// DatesWithinTolerance gates two event dates by their certainty levels.
// Dates that are absent or fail to parse match any date.
func (m *Matcher) DatesWithinTolerance(d1, d2 *string, c1, c2 models.DateCertainty) bool {
	tolerance, bounded := m.toleranceDays(c1, c2)
	if !bounded {
		return true
	}
	delta, ok := dayDelta(d1, d2)
	if !ok {
		return true
	}
	return delta <= tolerance
}

// DateSimilarity scores two event dates in [0,1]: 1.0 when either side is
// unknown, absent, or unparseable, else linear falloff over twice the
// tolerance window.
func (m *Matcher) DateSimilarity(d1, d2 *string, c1, c2 models.DateCertainty) float64 {
	tolerance, bounded := m.toleranceDays(c1, c2)
	if !bounded {
		return 1.0
	}
	delta, ok := dayDelta(d1, d2)
	if !ok {
		return 1.0
	}
	sim := 1.0 - delta/(2*tolerance)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// dayDelta returns the absolute distance in days between two date strings,
// reporting false when either is absent or unparseable
func dayDelta(d1, d2 *string) (float64, bool) {
	if d1 == nil || d2 == nil {
		return 0, false
	}
	t1, ok1 := parseDate(*d1)
	t2, ok2 := parseDate(*d2)
	if !ok1 || !ok2 {
		return 0, false
	}
	return math.Abs(t1.Sub(t2).Hours()) / 24, true
}
