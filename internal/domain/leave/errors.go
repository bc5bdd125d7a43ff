package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrRequestFinalized     = errors.New("leave request already finalized")

	// Validation
	ErrUnknownLeaveType      = errors.New("unknown leave type")
	ErrNotEligible           = errors.New("not eligible for this leave type")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrNoWorkingDays         = errors.New("requested dates contain no weekdays")
	ErrLateFilingRequired    = errors.New("start date is in the past, file a late application instead")
	ErrJustificationRequired = errors.New("late applications require a justification")
	ErrNotesRequired         = errors.New("notes are required when rejecting")
	ErrInvalidApprovedDays   = errors.New("approved days must be between 1 and the currently approved days")
	ErrInvalidPeriod         = errors.New("invalid accrual period")

	ErrOutOfSequence       = errors.New("approval stage out of sequence")
	ErrInsufficientBalance = errors.New("insufficient leave credits")
	ErrNegativeBalance     = errors.New("balance cannot go negative")
	ErrConcurrencyConflict = errors.New("a matching submission is already in progress")
	ErrOverlappingRequest  = errors.New("dates overlap another active leave request")
	ErrPolicyViolation     = errors.New("leave policy violation")
	ErrForbidden           = errors.New("not allowed to act on this leave request")
	ErrInvalidToken        = errors.New("invalid or expired negotiation token")
	ErrCannotCancel        = errors.New("only pending requests can be cancelled by the requester")
	ErrUnpaidNotSelectable = errors.New("unpaid leave is only available through the insufficient credit fallback")
)
