package leave

import (
	"context"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type LeaveService interface {
	AvailableLeaveTypes(ctx context.Context, actor Actor) ([]LeaveTypeResponse, error)

	Submit(ctx context.Context, actor Actor, req SubmitRequest) (SubmitResult, error)
	SubmitLate(ctx context.Context, actor Actor, req SubmitRequest) (SubmitResult, error)
	AcceptUnpaid(ctx context.Context, actor Actor, token string) (SubmitResult, error)
	DeclineNegotiation(ctx context.Context, actor Actor, token string) error

	Decide(ctx context.Context, actor Actor, req DecisionRequest) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, actor Actor, requestID string, req CancelRequest) (LeaveRequestResponse, error)

	GetRequest(ctx context.Context, actor Actor, requestID string) (LeaveRequestResponse, error)
	ListMyRequests(ctx context.Context, actor Actor) ([]LeaveRequestResponse, error)
	ListAwaitingStage(ctx context.Context, actor Actor, stage Stage) ([]LeaveRequestResponse, error)

	Balances(ctx context.Context, actor Actor) ([]BalanceResponse, error)
	CreditHistory(ctx context.Context, actor Actor, employeeID string) ([]HistoryResponse, error)
	AdjustCredits(ctx context.Context, actor Actor, req AdjustCreditsRequest) (HistoryResponse, error)

	RunAccrual(ctx context.Context, period time.Time) (AccrualReport, error)
	ExpiryAlerts(ctx context.Context, now time.Time) (int, error)
}

type EventKind string

const (
	EventSubmitted     EventKind = "submitted"
	EventStageApproved EventKind = "stage_approved"
	EventFinalApproved EventKind = "final_approved"
	EventRejected      EventKind = "rejected"
	EventCancelled     EventKind = "cancelled"
	EventExpiryAlert   EventKind = "expiry_alert"
)

// Event is emitted after a transition commits.
type Event struct {
	Kind       EventKind
	Request    *LeaveRequest
	Stage      Stage
	ActorID    string
	Notes      string
	EmployeeID string
	CreditType employee.CreditType
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// EventPublisher is the notification collaborator. Errors never roll back the
// transition that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NegotiationClaims are the verified contents of a negotiation token. TokenID
// is unique per offer.
type NegotiationClaims struct {
	TokenID    string
	EmployeeID string
	Payload    []byte
	ExpiresAt  time.Time
}

// NegotiationSigner seals a negotiation payload into a short-lived token.
type NegotiationSigner interface {
	SignNegotiation(employeeID string, payload []byte, ttl time.Duration) (token string, expiresAt time.Time, err error)
	VerifyNegotiation(token string) (NegotiationClaims, error)
}
