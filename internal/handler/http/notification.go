package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/response"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
)

// NotificationHandler serves the inbox, delivery preferences and the push stream.
type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)

	GetPreferences(w http.ResponseWriter, r *http.Request)
	UpdatePreference(w http.ResponseWriter, r *http.Request)

	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

const maxPageSize = 100

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	keepalive    time.Duration
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		keepalive:    30 * time.Second,
	}
}

type listQuery struct {
	page       int
	pageSize   int
	unreadOnly bool
}

// parseListQuery reads page, page_size and unread_only. Malformed values
// are rejected rather than silently defaulted.
func parseListQuery(r *http.Request) (listQuery, error) {
	q := listQuery{page: 1, pageSize: 20}
	var errs validator.ValidationErrors

	values := r.URL.Query()
	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive integer"})
		}
		q.page = n
	}
	if v := values.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			errs = append(errs, validator.ValidationError{Field: "page_size", Message: fmt.Sprintf("page_size must be between 1 and %d", maxPageSize)})
		}
		q.pageSize = n
	}
	if v := values.Get("unread_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "unread_only", Message: "unread_only must be a boolean"})
		}
		q.unreadOnly = b
	}

	if len(errs) > 0 {
		return listQuery{}, errs
	}
	return q, nil
}

func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.notifService.GetNotifications(r.Context(), a.UserID, q.page, q.pageSize, q.unreadOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), a.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req notification.MarkAsReadRequest
	if !decode(w, r, "MarkAsRead", &req) {
		return
	}
	if len(req.NotificationIDs) == 0 {
		response.HandleError(w, validator.ValidationErrors{{Field: "notification_ids", Message: "at least one id is required"}})
		return
	}

	if err := h.notifService.MarkAsRead(r.Context(), a.UserID, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notifications marked as read", nil)
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	if err := h.notifService.MarkAllAsRead(r.Context(), a.UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

func (h *notificationHandlerImpl) GetPreferences(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	prefs, err := h.notifService.GetPreferences(r.Context(), a.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, prefs)
}

func (h *notificationHandlerImpl) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req notification.UpdatePreferenceRequest
	if !decode(w, r, "UpdatePreference", &req) {
		return
	}
	if !req.NotificationType.IsValid() {
		response.HandleError(w, validator.ValidationErrors{{Field: "notification_type", Message: "unknown notification type"}})
		return
	}

	if err := h.notifService.UpdatePreference(r.Context(), a.UserID, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Preference updated", nil)
}

// GetSSEToken issues the short-lived token the stream endpoint accepts in
// its query string.
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(a.UserID)
	if err != nil {
		slog.Error("GenerateSSEToken failed", "user_id", a.UserID, "error", err)
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}
	response.Success(w, notification.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

// writeEvent writes one SSE frame. id 0 omits the id field.
func writeEvent(w io.Writer, id uint64, name string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body)
	return err
}

// Stream holds an SSE connection open. EventSource cannot set headers, so
// the caller authenticates with a token from GetSSEToken.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing stream token")
		return
	}
	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid stream token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.notifService.Subscribe(r.Context(), userID)
	defer cleanup()

	if err := writeEvent(w, 0, "connected", map[string]string{"status": "connected", "user_id": userID}); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		var err error
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			err = writeEvent(w, event.ID, event.Event, event.Data)
		case t := <-keepalive.C:
			err = writeEvent(w, 0, "ping", map[string]int64{"timestamp": t.Unix()})
		case <-r.Context().Done():
			return
		}
		if err != nil {
			slog.Debug("stream closed", "user_id", userID, "error", err)
			return
		}
		flusher.Flush()
	}
}
