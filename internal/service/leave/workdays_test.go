package leave

import (
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(leave.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCountWeekdays(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"full week", "2026-03-09", "2026-03-13", 5},
		{"single monday", "2026-03-09", "2026-03-09", 1},
		{"weekend only", "2026-03-14", "2026-03-15", 0},
		{"friday to monday", "2026-03-13", "2026-03-16", 2},
		{"two weeks", "2026-03-09", "2026-03-22", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWeekdays(day(tt.start), day(tt.end)))
		})
	}
}

func TestParseSpan_SelectedDates(t *testing.T) {
	span, err := parseSpan(leave.SubmitRequest{
		LeaveType:     leave.TypeVacation,
		SelectedDates: []string{"2026-03-13", "2026-03-09", "2026-03-14", "2026-03-09"},
	})
	require.NoError(t, err)

	assert.Equal(t, day("2026-03-09"), span.Start)
	assert.Equal(t, day("2026-03-14"), span.End)
	assert.Len(t, span.Selected, 3)
	assert.Equal(t, 2, span.Weekdays, "saturday is not counted")
}

func TestParseSpan_Range(t *testing.T) {
	span, err := parseSpan(rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-13"))
	require.NoError(t, err)

	assert.Equal(t, 5, span.Weekdays)
	assert.Empty(t, span.Selected)
}

func TestParseSpan_EndBeforeStart(t *testing.T) {
	_, err := parseSpan(rangeRequest(leave.TypeVacation, "2026-03-13", "2026-03-09"))
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestDateOnly_UsesLocation(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 20:00 UTC on the 1st is already the 2nd in Manila.
	got := dateOnly(time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC), manila)
	assert.Equal(t, day("2026-03-02"), got)
}
