package notification

import (
	"context"
	"time"
)

// Repository stores in-app notifications and per-type delivery preferences.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	// GetByUserID pages newest first and returns the unpaged total.
	GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, ids []string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	// PurgeRead deletes notifications read before the cutoff.
	PurgeRead(ctx context.Context, before time.Time) (int64, error)

	GetPreferences(ctx context.Context, userID string) ([]*NotificationPreference, error)
	// GetPreference returns ErrPreferenceNotFound when the user kept the defaults.
	GetPreference(ctx context.Context, userID string, notifType NotificationType) (*NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *NotificationPreference) error
}
