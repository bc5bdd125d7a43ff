package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(s *Store) notification.Repository {
	return &notificationRepository{store: s}
}

func (r *notificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.insertLocked(n)
	return nil
}

func (r *notificationRepository) CreateBatch(_ context.Context, ns []*notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, n := range ns {
		r.insertLocked(n)
	}
	return nil
}

func (r *notificationRepository) insertLocked(n *notification.Notification) {
	if n.ID == "" {
		n.ID = newID()
	}
	cp := *n
	r.store.notifications = append(r.store.notifications, &cp)
}

func (r *notificationRepository) GetByUserID(_ context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*notification.Notification
	for _, n := range r.store.notifications {
		if n.RecipientID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		matched = append(matched, &cp)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*notification.Notification{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *notificationRepository) GetUnreadCount(_ context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(_ context.Context, ids []string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	now := r.store.now()
	for _, n := range r.store.notifications {
		if _, ok := want[n.ID]; ok && n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) PurgeRead(_ context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.notifications[:0]
	var purged int64
	for _, n := range r.store.notifications {
		if n.IsRead && n.ReadAt != nil && n.ReadAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, n)
	}
	r.store.notifications = kept
	return purged, nil
}

func (r *notificationRepository) GetPreferences(_ context.Context, userID string) ([]*notification.NotificationPreference, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*notification.NotificationPreference
	for _, p := range r.store.preferences {
		if p.UserID == userID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *notificationRepository) GetPreference(_ context.Context, userID string, notifType notification.NotificationType) (*notification.NotificationPreference, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.preferences[userID+"|"+string(notifType)]
	if !ok {
		return nil, notification.ErrPreferenceNotFound
	}
	return &p, nil
}

func (r *notificationRepository) UpsertPreference(_ context.Context, pref *notification.NotificationPreference) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pref.UserID + "|" + string(pref.NotificationType)
	if existing, ok := r.store.preferences[key]; ok {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
	} else {
		if pref.ID == "" {
			pref.ID = newID()
		}
		pref.CreatedAt = r.store.now()
	}
	r.store.preferences[key] = *pref
	return nil
}
