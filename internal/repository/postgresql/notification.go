package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, recipient_id, sender_id, type, title, message, data, is_read, read_at, created_at`

const preferenceColumns = `id, user_id, notification_type, email_enabled, push_enabled, created_at, updated_at`

type notificationRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db, now: time.Now}
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

// CreateBatch inserts every row with one statement by unnesting parallel
// arrays, so the statement shape does not depend on the batch size.
func (r *notificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	var (
		ids        = make([]string, len(ns))
		recipients = make([]string, len(ns))
		senders    = make([]*string, len(ns))
		types      = make([]string, len(ns))
		titles     = make([]string, len(ns))
		messages   = make([]string, len(ns))
		data       = make([]string, len(ns))
		created    = make([]time.Time, len(ns))
	)
	for i, n := range ns {
		if n.ID == "" {
			n.ID = uuid.Must(uuid.NewV7()).String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = r.now()
		}
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("marshal notification data: %w", err)
		}
		ids[i], recipients[i], senders[i] = n.ID, n.RecipientID, n.SenderID
		types[i], titles[i], messages[i] = string(n.Type), n.Title, n.Message
		data[i], created[i] = string(raw), n.CreatedAt
	}

	_, err := GetQuerier(ctx, r.db).Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, data, created_at)
		SELECT u.id::uuid, u.recipient, u.sender, u.type, u.title, u.message, u.data::jsonb, u.created
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::timestamptz[])
			AS u(id, recipient, sender, type, title, message, data, created)
	`, ids, recipients, senders, types, titles, messages, data, created)
	if err != nil {
		return fmt.Errorf("insert %d notifications: %w", len(ns), err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n         notification.Notification
		notifType string
		raw       []byte
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &notifType, &n.Title, &n.Message, &raw, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = notification.NotificationType(notifType)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			return nil, fmt.Errorf("decode data of notification %s: %w", n.ID, err)
		}
	}
	return &n, nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, r.db)

	var total int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT is_read)
	`, userID, unreadOnly).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := GetQuerier(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead ignores ids that belong to other users or are already read.
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND id = ANY($3::text[]::uuid[]) AND NOT is_read
	`, r.now(), userID, ids)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	_, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND NOT is_read
	`, r.now(), userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	tag, err := GetQuerier(ctx, r.db).Exec(ctx,
		`DELETE FROM notifications WHERE is_read AND read_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPreference(row pgx.Row) (*notification.NotificationPreference, error) {
	var (
		p  notification.NotificationPreference
		nt string
	)
	if err := row.Scan(&p.ID, &p.UserID, &nt, &p.EmailEnabled, &p.PushEnabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.NotificationType = notification.NotificationType(nt)
	return &p, nil
}

func (r *notificationRepository) GetPreferences(ctx context.Context, userID string) ([]*notification.NotificationPreference, error) {
	rows, err := GetQuerier(ctx, r.db).Query(ctx, `
		SELECT `+preferenceColumns+`
		FROM notification_preferences
		WHERE user_id = $1
		ORDER BY notification_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*notification.NotificationPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *notificationRepository) GetPreference(ctx context.Context, userID string, notifType notification.NotificationType) (*notification.NotificationPreference, error) {
	p, err := scanPreference(GetQuerier(ctx, r.db).QueryRow(ctx, `
		SELECT `+preferenceColumns+`
		FROM notification_preferences
		WHERE user_id = $1 AND notification_type = $2
	`, userID, string(notifType)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notification.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return p, nil
}

func (r *notificationRepository) UpsertPreference(ctx context.Context, pref *notification.NotificationPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := r.now()
	err := GetQuerier(ctx, r.db).QueryRow(ctx, `
		INSERT INTO notification_preferences (id, user_id, notification_type, email_enabled, push_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, notification_type)
		DO UPDATE SET email_enabled = EXCLUDED.email_enabled, push_enabled = EXCLUDED.push_enabled, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, pref.ID, pref.UserID, string(pref.NotificationType), pref.EmailEnabled, pref.PushEnabled, now,
	).Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}
