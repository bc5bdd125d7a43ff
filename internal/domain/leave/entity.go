package leave

import (
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller threaded into every core operation.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       employee.Role
}

type LeaveRequest struct {
	ID                string
	EmployeeID        string
	LeaveType         LeaveType
	OriginalLeaveType *LeaveType
	StartDate         time.Time
	EndDate           time.Time
	SelectedDates     []time.Time
	DaysRequested     int
	ApprovedDays      int
	Status            LeaveRequestStatus
	Approvals         []Approval
	IsLate            bool
	LateJustification *string
	DocumentPath      *string
	Reason            string

	// CreditsDeducted is set once, by whichever path takes the credits.
	CreditsDeducted decimal.Decimal
	DeductedAt      *time.Time
	CreditsRefunded decimal.Decimal
	RefundedAt      *time.Time

	SubmittedBy string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsConverted reports whether the request was turned into unpaid leave.
func (r LeaveRequest) IsConverted() bool {
	return r.LeaveType == TypeUnpaid && r.OriginalLeaveType != nil
}

// Approval is the audit record of one stage decision.
type Approval struct {
	ID           string
	RequestID    string
	Stage        Stage
	ApproverID   string
	Decision     Decision
	ApprovedDays *int
	Notes        string
	DecidedAt    time.Time
}

type HistorySource string

const (
	SourceAccrual    HistorySource = "accrual"
	SourceAdjustment HistorySource = "adjustment"
	SourceDeduction  HistorySource = "deduction"
	SourceRefund     HistorySource = "refund"
	SourceExpiry     HistorySource = "expiry"
)

// CreditHistoryEntry is append-only; every balance mutation writes exactly one.
type CreditHistoryEntry struct {
	ID             string
	EmployeeID     string
	CreditType     employee.CreditType
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	EffectiveDate  time.Time
	Source         HistorySource
	LeaveRequestID *string
	Notes          string
	CreatedBy      *string
	CreatedAt      time.Time
}

// AccrualRun records that a credit type was granted to an employee for a period.
type AccrualRun struct {
	EmployeeID string
	CreditType employee.CreditType
	Period     string
	Amount     decimal.Decimal
	CreatedAt  time.Time
}
