package notification

import (
	"time"
)

// DataLeaveRequestID is the Data key carrying the related leave request.
const DataLeaveRequestID = "leave_request_id"

// CreateNotificationRequest is what producers hand to the queue.
type CreateNotificationRequest struct {
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]any
}

type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

type UpdatePreferenceRequest struct {
	NotificationType NotificationType `json:"notification_type"`
	EmailEnabled     bool             `json:"email_enabled"`
	PushEnabled      bool             `json:"push_enabled"`
}

// NotificationResponse is the inbox and stream representation. LeaveRequestID
// is lifted out of Data so clients can link without digging.
type NotificationResponse struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	LeaveRequestID string           `json:"leave_request_id,omitempty"`
	Data           map[string]any   `json:"data,omitempty"`
	IsRead         bool             `json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

type PreferenceResponse struct {
	NotificationType NotificationType `json:"notification_type"`
	EmailEnabled     bool             `json:"email_enabled"`
	PushEnabled      bool             `json:"push_enabled"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSETokenResponse carries a stream token and its lifetime in seconds.
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// SSEEvent is one frame on the push stream.
type SSEEvent struct {
	ID    uint64               `json:"id"`
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}
