package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
)

const notificationPurgeInterval = 24 * time.Hour

// NotificationJobs deletes read notifications older than the retention.
type NotificationJobs struct {
	repo      notification.Repository
	retention time.Duration
	now       func() time.Time
}

func NewNotificationJobs(repo notification.Repository, retention time.Duration) *NotificationJobs {
	return &NotificationJobs{repo: repo, retention: retention, now: time.Now}
}

// RegisterJobs adds the purge. A non-positive retention keeps everything.
func (j *NotificationJobs) RegisterJobs(scheduler *Scheduler) {
	if j.retention <= 0 {
		return
	}
	scheduler.Register(Job{Name: "notification_read_purge", Interval: notificationPurgeInterval, Timeout: 10 * time.Minute, Fn: j.PurgeRead})
}

func (j *NotificationJobs) PurgeRead(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	n, err := j.repo.PurgeRead(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}
	if n > 0 {
		slog.Info("Cron: read notifications purged", "count", n, "cutoff", cutoff)
	}
	return nil
}
