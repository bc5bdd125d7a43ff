package notification

import (
	"context"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/sse"
	"github.com/ejohntemperatura/Thesis-sub000/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_QueueFlushesOnStop(t *testing.T) {
	repo := memory.NewNotificationRepository(memory.NewStore())
	svc := NewNotificationService(repo, sse.NewHub(sse.Config{}), Config{BatchSize: 10, FlushInterval: time.Hour, WorkerCount: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.QueueNotification(ctx, notification.CreateNotificationRequest{
			RecipientID: "user-1",
			Type:        notification.TypeLeaveApproved,
			Title:       "Leave request approved",
			Message:     "approved",
		}))
	}
	svc.Stop()
	svc.Stop()

	count, err := svc.GetUnreadCount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNotificationService_RejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(memory.NewNotificationRepository(memory.NewStore()), sse.NewHub(sse.Config{}), Config{WorkerCount: 1})
	defer svc.Stop()

	err := svc.QueueNotification(context.Background(), notification.CreateNotificationRequest{RecipientID: "u", Type: "payroll"})
	assert.ErrorIs(t, err, notification.ErrInvalidNotificationType)

	err = svc.QueueNotification(context.Background(), notification.CreateNotificationRequest{Type: notification.TypeLeaveApproved})
	assert.ErrorIs(t, err, notification.ErrEmptyRecipient)
}

func TestNotificationService_PushesToSubscribers(t *testing.T) {
	hub := sse.NewHub(sse.Config{})
	repo := memory.NewNotificationRepository(memory.NewStore())
	svc := NewNotificationService(repo, hub, Config{BatchSize: 1, FlushInterval: time.Hour, WorkerCount: 1})
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, cleanup := svc.Subscribe(ctx, "user-1")
	defer cleanup()

	require.NoError(t, svc.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: "user-1",
		Type:        notification.TypeLeaveRejected,
		Title:       "Leave request rejected",
		Data:        map[string]any{notification.DataLeaveRequestID: "lr-9"},
	}))

	select {
	case ev := <-events:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, "Leave request rejected", ev.Data.Title)
		assert.Equal(t, "lr-9", ev.Data.LeaveRequestID)
		assert.NotZero(t, ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the notification to be pushed")
	}
}

func TestNotificationService_PreferencesDefaultToEnabled(t *testing.T) {
	svc := NewNotificationService(memory.NewNotificationRepository(memory.NewStore()), sse.NewHub(sse.Config{}), Config{WorkerCount: 1})
	defer svc.Stop()
	ctx := context.Background()

	assert.True(t, svc.EmailEnabled(ctx, "user-1", notification.TypeLeaveApproved))

	require.NoError(t, svc.UpdatePreference(ctx, "user-1", notification.UpdatePreferenceRequest{
		NotificationType: notification.TypeLeaveApproved,
		EmailEnabled:     false,
		PushEnabled:      true,
	}))
	assert.False(t, svc.EmailEnabled(ctx, "user-1", notification.TypeLeaveApproved))

	prefs, err := svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, prefs, len(notification.AllNotificationTypes()))
	for _, p := range prefs {
		if p.NotificationType == notification.TypeLeaveApproved {
			assert.False(t, p.EmailEnabled)
			assert.True(t, p.PushEnabled)
		} else {
			assert.True(t, p.EmailEnabled)
		}
	}
}
