// Package recurrence expands recurrence rules into bounded, ordered
// occurrence sequences. Expansion is a pure function of its inputs; no
// state is retained between calls.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/campusplan/planner-api/internal/models"
)

// maxInstants caps a single expansion so an unbounded rule over a huge
// window cannot balloon the response.
const maxInstants = 1000

// Span is one concrete (start, end) occurrence interval.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RuleError reports invalid recurrence parameters. It is a caller
// contract violation, not a recoverable data problem: the event that
// carries the rule cannot be rendered.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return "recurrence: " + e.Reason
}

var weekdayToRRule = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Expand produces the ordered occurrence spans of rule within
// [windowStart, windowEnd]. The base start/end instants anchor the
// time-of-day and duration; the rule's until date, when present, caps
// the sequence regardless of the window.
//
// Begin and end instants are produced by two rule evaluations that
// differ only in their anchor instant and are recombined positionally:
// the i-th begin pairs with the i-th end. If the two sequences ever
// disagree in length the pairing truncates to the shorter one.
func Expand(rule models.Recurrence, baseStart, baseEnd, windowStart, windowEnd time.Time) ([]Span, error) {
	if windowEnd.Before(windowStart) {
		return nil, &RuleError{Reason: "window end before window start"}
	}

	freq := rule.Frequency
	if freq == "" {
		freq = models.FreqNone
	}
	if !freq.Valid() {
		return nil, &RuleError{Reason: fmt.Sprintf("unknown frequency %q", freq)}
	}

	if freq == models.FreqNone {
		if overlaps(baseStart, baseEnd, windowStart, windowEnd) {
			return []Span{{Start: baseStart, End: baseEnd}}, nil
		}
		return nil, nil
	}

	if rule.Interval < 1 {
		return nil, &RuleError{Reason: fmt.Sprintf("interval %d is not positive", rule.Interval)}
	}
	if !freq.Custom() && rule.Interval != 1 {
		return nil, &RuleError{Reason: fmt.Sprintf("preset %s cannot carry interval %d", freq, rule.Interval)}
	}

	var byweekday []rrule.Weekday
	switch freq {
	case models.FreqWeekly, models.FreqCustomWeekly:
		if len(rule.Days) == 0 {
			return nil, &RuleError{Reason: "weekly rule has an empty day set"}
		}
		for _, d := range rule.Days {
			byweekday = append(byweekday, weekdayToRRule[d])
		}
	case models.FreqWeekday:
		for _, d := range models.Weekdays {
			byweekday = append(byweekday, weekdayToRRule[d])
		}
	}

	rfreq, err := rruleFrequency(freq)
	if err != nil {
		return nil, err
	}

	until := time.Time{}
	if rule.Until != nil {
		until = *rule.Until
	}

	begins, err := instants(rfreq, rule.Interval, byweekday, baseStart, until, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	// The end sequence is evaluated with the same cadence anchored at
	// the base end instant, with its bounds shifted by the base
	// duration so both sequences cover the same occurrence set.
	dur := baseEnd.Sub(baseStart)
	endUntil := until
	if !until.IsZero() {
		endUntil = until.Add(dur)
	}
	ends, err := instants(rfreq, rule.Interval, byweekday, baseEnd, endUntil, windowStart.Add(dur), windowEnd.Add(dur))
	if err != nil {
		return nil, err
	}

	n := len(begins)
	if len(ends) < n {
		n = len(ends)
	}
	spans := make([]Span, 0, n)
	for i := 0; i < n; i++ {
		spans = append(spans, Span{Start: begins[i], End: ends[i]})
	}
	return spans, nil
}

func rruleFrequency(freq models.Frequency) (rrule.Frequency, error) {
	switch freq {
	case models.FreqDaily, models.FreqCustomDaily:
		return rrule.DAILY, nil
	case models.FreqWeekly, models.FreqWeekday, models.FreqCustomWeekly:
		return rrule.WEEKLY, nil
	case models.FreqMonthly, models.FreqCustomMonthly:
		return rrule.MONTHLY, nil
	case models.FreqCustomYearly:
		return rrule.YEARLY, nil
	}
	return 0, &RuleError{Reason: fmt.Sprintf("frequency %q has no expansion", freq)}
}

func instants(freq rrule.Frequency, interval int, byweekday []rrule.Weekday, anchor, until, winStart, winEnd time.Time) ([]time.Time, error) {
	opt := rrule.ROption{
		Freq:      freq,
		Interval:  interval,
		Byweekday: byweekday,
		Dtstart:   anchor,
	}
	if !until.IsZero() {
		opt.Until = until
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &RuleError{Reason: err.Error()}
	}
	ts := r.Between(winStart, winEnd, true)
	if len(ts) > maxInstants {
		ts = ts[:maxInstants]
	}
	return ts, nil
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
