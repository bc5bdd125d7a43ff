package leave

import (
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// ============= Request DTOs =============

// SubmitRequest is the intake payload for both the standard and late paths.
// Either StartDate/EndDate or SelectedDates must be given.
type SubmitRequest struct {
	LeaveType         LeaveType `json:"leave_type"`
	StartDate         string    `json:"start_date,omitempty"`
	EndDate           string    `json:"end_date,omitempty"`
	SelectedDates     []string  `json:"selected_dates,omitempty"`
	Reason            string    `json:"reason"`
	DocumentPath      *string   `json:"document_path,omitempty"`
	LateJustification *string   `json:"late_justification,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(string(r.LeaveType)) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type is required",
		})
	}

	if len(r.SelectedDates) > 0 {
		if r.StartDate != "" || r.EndDate != "" {
			errs = append(errs, validator.ValidationError{
				Field:   "selected_dates",
				Message: "use either selected_dates or start_date/end_date, not both",
			})
		}
		for _, d := range r.SelectedDates {
			if _, ok := validator.IsValidDate(d); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   "selected_dates",
					Message: "selected_dates must use YYYY-MM-DD format",
				})
				break
			}
		}
	} else {
		start, startOK := validator.IsValidDate(r.StartDate)
		if !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date is required in YYYY-MM-DD format",
			})
		}
		end, endOK := validator.IsValidDate(r.EndDate)
		if !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date is required in YYYY-MM-DD format",
			})
		}
		if startOK && endOK && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DecisionRequest struct {
	RequestID    string   `json:"-"`
	Stage        Stage    `json:"stage"`
	Decision     Decision `json:"decision"`
	ApprovedDays *int     `json:"approved_days,omitempty"`
	Notes        string   `json:"notes"`
}

func (r *DecisionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{Field: "request_id", Message: "request_id is required"})
	}
	if _, ok := TransitionFor(r.Stage); !ok {
		errs = append(errs, validator.ValidationError{Field: "stage", Message: "stage must be one of dept_head, hr, director, final"})
	}
	switch r.Decision {
	case DecisionApprove:
	case DecisionReject:
		if validator.IsEmpty(r.Notes) {
			errs = append(errs, validator.ValidationError{Field: "notes", Message: ErrNotesRequired.Error()})
		}
		if r.ApprovedDays != nil {
			errs = append(errs, validator.ValidationError{Field: "approved_days", Message: "approved_days is only valid when approving"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "decision", Message: "decision must be approve or reject"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type NegotiationRequest struct {
	Token string `json:"token"`
}

func (r *NegotiationRequest) Validate() error {
	if validator.IsEmpty(r.Token) {
		return validator.ValidationErrors{{Field: "token", Message: "token is required"}}
	}
	return nil
}

// AdjustCreditsRequest is a manual HR correction. Amount is signed.
type AdjustCreditsRequest struct {
	EmployeeID string              `json:"employee_id"`
	CreditType employee.CreditType `json:"credit_type"`
	Amount     decimal.Decimal     `json:"amount"`
	Notes      string              `json:"notes"`
}

func (r *AdjustCreditsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if !r.CreditType.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "credit_type", Message: "credit_type is not a tracked balance"})
	}
	if r.Amount.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount must not be zero"})
	}
	if validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{Field: "notes", Message: "notes are required for manual adjustments"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunAccrualRequest struct {
	Period string `json:"period"` // YYYY-MM, defaults to the current month
}

// GrantInput is the single entry point for adding or removing credits outside
// of a leave deduction.
type GrantInput struct {
	EmployeeID    string
	CreditType    employee.CreditType
	Amount        decimal.Decimal
	EffectiveDate time.Time
	Source        HistorySource
	RequestID     *string
	Notes         string
	CreatedBy     *string
}

// ============= Results =============

// Sufficiency is the ledger's answer for one prospective request.
type Sufficiency struct {
	Sufficient bool            `json:"sufficient"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Unit       Unit            `json:"unit"`
	Message    string          `json:"message,omitempty"`
}

// NegotiationPrompt offers to refile an under-funded request as unpaid leave.
type NegotiationPrompt struct {
	Payload   SubmitRequest   `json:"payload"`
	LeaveType LeaveType       `json:"leave_type"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Message   string          `json:"message"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// SubmitResult carries exactly one of Request or Negotiation.
type SubmitResult struct {
	Request     *LeaveRequestResponse `json:"request,omitempty"`
	Negotiation *NegotiationPrompt    `json:"negotiation,omitempty"`
}

type AccrualError struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type AccrualReport struct {
	Period    string         `json:"period"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Errored   int            `json:"errored"`
	Errors    []AccrualError `json:"errors,omitempty"`
}

// ============= Response DTOs =============

type ApprovalResponse struct {
	Stage        Stage     `json:"stage"`
	ApproverID   string    `json:"approver_id"`
	Decision     Decision  `json:"decision"`
	ApprovedDays *int      `json:"approved_days,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

type LeaveRequestResponse struct {
	ID                string             `json:"id"`
	EmployeeID        string             `json:"employee_id"`
	LeaveType         LeaveType          `json:"leave_type"`
	OriginalLeaveType *LeaveType         `json:"original_leave_type,omitempty"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	SelectedDates     []string           `json:"selected_dates,omitempty"`
	DaysRequested     int                `json:"days_requested"`
	ApprovedDays      int                `json:"approved_days"`
	Status            LeaveRequestStatus `json:"status"`
	AwaitingStage     *Stage             `json:"awaiting_stage,omitempty"`
	Approvals         []ApprovalResponse `json:"approvals"`
	IsLate            bool               `json:"is_late"`
	LateJustification *string            `json:"late_justification,omitempty"`
	DocumentPath      *string            `json:"document_path,omitempty"`
	Reason            string             `json:"reason"`
	CreditsDeducted   decimal.Decimal    `json:"credits_deducted"`
	CreditsRefunded   decimal.Decimal    `json:"credits_refunded"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		LeaveType:         r.LeaveType,
		OriginalLeaveType: r.OriginalLeaveType,
		StartDate:         r.StartDate.Format(DateLayout),
		EndDate:           r.EndDate.Format(DateLayout),
		DaysRequested:     r.DaysRequested,
		ApprovedDays:      r.ApprovedDays,
		Status:            r.Status,
		Approvals:         make([]ApprovalResponse, 0, len(r.Approvals)),
		IsLate:            r.IsLate,
		LateJustification: r.LateJustification,
		DocumentPath:      r.DocumentPath,
		Reason:            r.Reason,
		CreditsDeducted:   r.CreditsDeducted,
		CreditsRefunded:   r.CreditsRefunded,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	for _, d := range r.SelectedDates {
		resp.SelectedDates = append(resp.SelectedDates, d.Format(DateLayout))
	}
	if t, ok := CurrentStage(r.Status); ok {
		stage := t.Stage
		resp.AwaitingStage = &stage
	}
	for _, a := range r.Approvals {
		resp.Approvals = append(resp.Approvals, ApprovalResponse{
			Stage:        a.Stage,
			ApproverID:   a.ApproverID,
			Decision:     a.Decision,
			ApprovedDays: a.ApprovedDays,
			Notes:        a.Notes,
			DecidedAt:    a.DecidedAt,
		})
	}
	return resp
}

type BalanceResponse struct {
	CreditType employee.CreditType `json:"credit_type"`
	Balance    decimal.Decimal     `json:"balance"`
	Unit       Unit                `json:"unit"`
}

type HistoryResponse struct {
	ID             string              `json:"id"`
	CreditType     employee.CreditType `json:"credit_type"`
	Amount         decimal.Decimal     `json:"amount"`
	BalanceAfter   decimal.Decimal     `json:"balance_after"`
	EffectiveDate  string              `json:"effective_date"`
	Source         HistorySource       `json:"source"`
	LeaveRequestID *string             `json:"leave_request_id,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type LeaveTypeResponse struct {
	Type                 LeaveType            `json:"type"`
	DisplayName          string               `json:"display_name"`
	CreditType           *employee.CreditType `json:"credit_type,omitempty"`
	Unit                 Unit                 `json:"unit"`
	Balance              *decimal.Decimal     `json:"balance,omitempty"`
	AllowsUnpaidFallback bool                 `json:"allows_unpaid_fallback"`
}
