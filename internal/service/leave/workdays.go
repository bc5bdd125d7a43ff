package leave

import (
	"fmt"
	"sort"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

// dateSpan is the parsed date selection of a submission.
type dateSpan struct {
	Start    time.Time
	End      time.Time
	Selected []time.Time
	Weekdays int
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

// CountWeekdays counts Monday to Friday dates in [start, end].
func CountWeekdays(start, end time.Time) int {
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			count++
		}
	}
	return count
}

// parseSpan reads either the explicit date list or the start/end pair of req.
// Selected dates are deduplicated and sorted.
func parseSpan(req leave.SubmitRequest) (dateSpan, error) {
	if len(req.SelectedDates) > 0 {
		seen := make(map[string]struct{}, len(req.SelectedDates))
		var dates []time.Time
		for _, s := range req.SelectedDates {
			d, err := time.Parse(leave.DateLayout, s)
			if err != nil {
				return dateSpan{}, fmt.Errorf("%w: %q", leave.ErrInvalidDateRange, s)
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		weekdays := 0
		for _, d := range dates {
			if !isWeekend(d) {
				weekdays++
			}
		}
		return dateSpan{Start: dates[0], End: dates[len(dates)-1], Selected: dates, Weekdays: weekdays}, nil
	}

	start, err := time.Parse(leave.DateLayout, req.StartDate)
	if err != nil {
		return dateSpan{}, fmt.Errorf("%w: start_date", leave.ErrInvalidDateRange)
	}
	end, err := time.Parse(leave.DateLayout, req.EndDate)
	if err != nil {
		return dateSpan{}, fmt.Errorf("%w: end_date", leave.ErrInvalidDateRange)
	}
	if end.Before(start) {
		return dateSpan{}, fmt.Errorf("%w: end_date before start_date", leave.ErrInvalidDateRange)
	}
	return dateSpan{Start: start, End: end, Weekdays: CountWeekdays(start, end)}, nil
}

// spanOf rebuilds the date selection of a stored request.
func spanOf(r leave.LeaveRequest) dateSpan {
	return dateSpan{Start: r.StartDate, End: r.EndDate, Selected: r.SelectedDates, Weekdays: r.DaysRequested}
}

// days lists the weekdays the span takes.
func (s dateSpan) days() []string {
	var out []string
	if len(s.Selected) > 0 {
		for _, d := range s.Selected {
			if !isWeekend(d) {
				out = append(out, d.Format(leave.DateLayout))
			}
		}
		return out
	}
	for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			out = append(out, d.Format(leave.DateLayout))
		}
	}
	return out
}

// sharedDay returns the first weekday taken by both spans.
func (s dateSpan) sharedDay(o dateSpan) (string, bool) {
	if s.End.Before(o.Start) || o.End.Before(s.Start) {
		return "", false
	}
	taken := make(map[string]struct{})
	for _, d := range o.days() {
		taken[d] = struct{}{}
	}
	for _, d := range s.days() {
		if _, ok := taken[d]; ok {
			return d, true
		}
	}
	return "", false
}

// dateOnly returns midnight UTC of t's calendar date in loc, comparable with
// dates parsed from YYYY-MM-DD.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
