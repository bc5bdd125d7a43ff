package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

const (
	defaultAccrualInterval = 6 * time.Hour
	expiryAlertInterval    = 24 * time.Hour
	markerPurgeInterval    = 10 * time.Minute
)

// LeaveJobs runs the periodic leave credit work: monthly accrual, year-end
// expiry alerts, and cleanup of stale submission markers.
type LeaveJobs struct {
	leaveSvc        leave.LeaveService
	markers         leave.SubmissionMarkerRepository
	accrualInterval time.Duration
	loc             *time.Location
	now             func() time.Time
}

func NewLeaveJobs(leaveSvc leave.LeaveService, markers leave.SubmissionMarkerRepository, accrualInterval time.Duration, loc *time.Location) *LeaveJobs {
	if accrualInterval <= 0 {
		accrualInterval = defaultAccrualInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveJobs{
		leaveSvc:        leaveSvc,
		markers:         markers,
		accrualInterval: accrualInterval,
		loc:             loc,
		now:             time.Now,
	}
}

// RegisterJobs adds the leave jobs. Accrual and expiry alerts also run at
// startup so a restart catches up on a missed period.
func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.Register(Job{Name: "leave_monthly_accrual", Interval: j.accrualInterval, RunOnStart: true, Fn: j.RunMonthlyAccrual})
	scheduler.Register(Job{Name: "leave_expiry_alerts", Interval: expiryAlertInterval, Timeout: time.Hour, RunOnStart: true, Fn: j.SendExpiryAlerts})
	scheduler.Register(Job{Name: "leave_submission_marker_purge", Interval: markerPurgeInterval, Fn: j.PurgeSubmissionMarkers})
}

// RunMonthlyAccrual accrues the current month. Runs are idempotent per
// period, so the job can fire several times a month and catch up after downtime.
func (j *LeaveJobs) RunMonthlyAccrual(ctx context.Context) error {
	period := j.now().In(j.loc)
	report, err := j.leaveSvc.RunAccrual(ctx, period)
	if err != nil {
		return fmt.Errorf("accrual for %s: %w", period.Format("2006-01"), err)
	}
	if report.Processed > 0 || report.Errored > 0 {
		slog.Info("Cron: leave accrual finished",
			"period", report.Period,
			"processed", report.Processed,
			"skipped", report.Skipped,
			"errored", report.Errored,
		)
	}
	return nil
}

func (j *LeaveJobs) SendExpiryAlerts(ctx context.Context) error {
	sent, err := j.leaveSvc.ExpiryAlerts(ctx, j.now().In(j.loc))
	if err != nil {
		return fmt.Errorf("expiry alerts: %w", err)
	}
	if sent > 0 {
		slog.Info("Cron: special privilege expiry alerts sent", "count", sent)
	}
	return nil
}

func (j *LeaveJobs) PurgeSubmissionMarkers(ctx context.Context) error {
	n, err := j.markers.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge submission markers: %w", err)
	}
	slog.Debug("Cron: submission markers purged", "count", n)
	return nil
}
