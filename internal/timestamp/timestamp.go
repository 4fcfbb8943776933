// Package timestamp locates calendar dates inside OCR output. An ordered list
// of layout templates is applied to the same text and the candidate sets are
// unioned; a wide plausibility window then discards OCR-garbled values before
// any cutoff comparison.
package timestamp

import (
	"regexp"
	"strconv"
	"time"
)

// Plausibility window, exclusive on both ends. OCR noise produces wildly
// wrong digits far more often than near-miss ones, so the band is deliberately
// wide: epoch-adjacent and far-future parses are rejected, everything else
// passes.
var (
	plausiblePast   = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	plausibleFuture = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Candidate is one raw date match before plausibility filtering.
type Candidate struct {
	// Date is the parsed calendar value, midnight UTC.
	Date time.Time
	// Layout names the template that produced the match.
	Layout string
	// Start and End delimit the matched span in the scanned text.
	Start, End int
}

// layout is one date template. Group indices locate the year, month and day
// submatches; a zero index anchors the component to 1.
type layout struct {
	name  string
	re    *regexp.Regexp
	year  int
	month int
	day   int
}

// Templates are applied independently and their matches unioned, not
// first-match-wins. The same substring may satisfy several templates ("2021"
// alone and as part of "11/01/2021"); the resulting repeats and near-repeats
// are the caller's to collapse.
var layouts = []layout{
	{
		name: "day/month/year",
		re:   regexp.MustCompile(`\b(\d{1,2})[./\\](\d{1,2})[./\\](\d{4})\b`),
		day:  1, month: 2, year: 3,
	},
	{
		name: "year/day/month",
		re:   regexp.MustCompile(`\b(\d{4})[./\\](\d{1,2})[./\\](\d{1,2})\b`),
		year: 1, day: 2, month: 3,
	},
	{
		name: "year",
		re:   regexp.MustCompile(`\b(\d{4})\b`),
		year: 1,
	},
}

// Match applies every layout template to text and returns the union of raw
// candidates. Bare years anchor to January 1st. Values are not deduplicated
// here; the findings router collapses repeats before reporting.
func Match(text string) []Candidate {
	var candidates []Candidate

	for _, l := range layouts {
		for _, m := range l.re.FindAllStringSubmatchIndex(text, -1) {
			year := groupInt(text, m, l.year)
			month, day := 1, 1
			if l.month > 0 {
				month = groupInt(text, m, l.month)
			}
			if l.day > 0 {
				day = groupInt(text, m, l.day)
			}
			date, ok := calendarDate(year, month, day)
			if !ok {
				continue
			}

			candidates = append(candidates, Candidate{
				Date:   date,
				Layout: l.name,
				Start:  m[0],
				End:    m[1],
			})
		}
	}

	return candidates
}

// Plausible reports whether a date falls strictly inside the sanity window.
func Plausible(d time.Time) bool {
	return d.After(plausiblePast) && d.Before(plausibleFuture)
}

// FindBefore returns every plausible matched date strictly earlier than
// cutoff. The result may contain repeated values when several templates
// matched overlapping substrings.
func FindBefore(text string, cutoff time.Time) []time.Time {
	var dates []time.Time
	for _, c := range Match(text) {
		if Plausible(c.Date) && c.Date.Before(cutoff) {
			dates = append(dates, c.Date)
		}
	}
	return dates
}

func groupInt(text string, m []int, group int) int {
	n, _ := strconv.Atoi(text[m[2*group]:m[2*group+1]])
	return n
}

// calendarDate validates the components as a real calendar date. time.Date
// normalizes overflow (32/01 becomes 01/02), so the round trip is checked.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
