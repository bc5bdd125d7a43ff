package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/auth"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var outOfSequence *leave.OutOfSequenceError
	if errors.As(err, &outOfSequence) {
		details := map[string]string{"status": string(outOfSequence.Status)}
		if outOfSequence.Expected != "" {
			details["expected_stage"] = string(outOfSequence.Expected)
		}
		Fail(w, http.StatusConflict, CodeOutOfSequence, outOfSequence.Error(), details)
		return
	}

	switch {
	// Caller identity
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingClaims),
		errors.Is(err, auth.ErrUnknownRole):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrRoleNotAllowed):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")
	case errors.Is(err, employee.ErrInvalidCreditType):
		BadRequest(w, err.Error(), nil)

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrRequestFinalized),
		errors.Is(err, leave.ErrCannotCancel),
		errors.Is(err, leave.ErrOverlappingRequest):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrConcurrencyConflict):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrNegativeBalance):
		Fail(w, http.StatusUnprocessableEntity, CodeInsufficientCredits, err.Error(), nil)
	case errors.Is(err, leave.ErrInvalidToken):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrUnknownLeaveType),
		errors.Is(err, leave.ErrNotEligible),
		errors.Is(err, leave.ErrInvalidDateRange),
		errors.Is(err, leave.ErrNoWorkingDays),
		errors.Is(err, leave.ErrLateFilingRequired),
		errors.Is(err, leave.ErrJustificationRequired),
		errors.Is(err, leave.ErrNotesRequired),
		errors.Is(err, leave.ErrInvalidApprovedDays),
		errors.Is(err, leave.ErrInvalidPeriod),
		errors.Is(err, leave.ErrUnpaidNotSelectable):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrPolicyViolation):
		Fail(w, http.StatusUnprocessableEntity, CodePolicyViolation, err.Error(), nil)

	// Notification domain errors
	case errors.Is(err, notification.ErrInvalidNotificationType),
		errors.Is(err, notification.ErrEmptyRecipient):
		BadRequest(w, err.Error(), nil)

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
