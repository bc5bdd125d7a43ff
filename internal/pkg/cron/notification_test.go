package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	notification.Repository
	cutoffs []time.Time
	err     error
}

func (f *fakeNotificationRepo) PurgeRead(_ context.Context, before time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, before)
	return 4, f.err
}

func TestNotificationJobs_PurgeUsesRetention(t *testing.T) {
	repo := &fakeNotificationRepo{}
	jobs := NewNotificationJobs(repo, 90*24*time.Hour)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time { return now }

	scheduler := NewScheduler(nil)
	jobs.RegisterJobs(scheduler)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), repo.cutoffs[0])
}

func TestNotificationJobs_ZeroRetentionRegistersNothing(t *testing.T) {
	repo := &fakeNotificationRepo{}
	scheduler := NewScheduler(nil)
	NewNotificationJobs(repo, 0).RegisterJobs(scheduler)

	require.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Empty(t, repo.cutoffs)
}

func TestNotificationJobs_PurgeError(t *testing.T) {
	repo := &fakeNotificationRepo{err: errors.New("db down")}
	err := NewNotificationJobs(repo, time.Hour).PurgeRead(context.Background())
	assert.ErrorContains(t, err, "purge read notifications")
}
