package notification

import "errors"

var (
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrPreferenceNotFound      = errors.New("notification preference not found")
	ErrEmptyRecipient          = errors.New("notification recipient is required")
)
