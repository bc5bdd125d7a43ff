package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/metrics"
)

// Config tunes the leave service. Zero values fall back to defaults.
type Config struct {
	SubmissionWindow time.Duration
	NegotiationTTL   time.Duration
	Location         *time.Location
	Accrual          *AccrualPlan
	Now              func() time.Time
}

// Repositories groups the persistence collaborators of the leave service.
type Repositories struct {
	Employees employee.EmployeeRepository
	Credits   leave.CreditRepository
	Requests  leave.LeaveRequestRepository
	Accruals  leave.AccrualRepository
	Markers   leave.SubmissionMarkerRepository
	Tx        leave.TxManager
}

type LeaveServiceImpl struct {
	policy    *leave.CreditPolicy
	employees employee.EmployeeRepository
	requests  leave.LeaveRequestRepository
	publisher leave.EventPublisher
	now       func() time.Time

	ledger     *CreditLedger
	intake     *LeaveRequestIntake
	negotiator *InsufficientCreditNegotiator
	machine    *ApprovalStateMachine
	accrual    *AccrualEngine
}

func NewLeaveService(policy *leave.CreditPolicy, repos Repositories, signer leave.NegotiationSigner, publisher leave.EventPublisher, cfg Config) *LeaveServiceImpl {
	if policy == nil {
		policy = leave.DefaultPolicy()
	}
	if cfg.SubmissionWindow <= 0 {
		cfg.SubmissionWindow = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	plan := DefaultAccrualPlan()
	if cfg.Accrual != nil {
		plan = *cfg.Accrual
	}

	ledger := NewCreditLedger(policy, repos.Credits, repos.Tx)
	ledger.now = cfg.Now
	negotiator := NewInsufficientCreditNegotiator(signer, repos.Markers, cfg.NegotiationTTL)
	negotiator.now = cfg.Now

	return &LeaveServiceImpl{
		policy:     policy,
		employees:  repos.Employees,
		requests:   repos.Requests,
		publisher:  publisher,
		now:        cfg.Now,
		ledger:     ledger,
		negotiator: negotiator,
		intake: &LeaveRequestIntake{
			policy:     policy,
			ledger:     ledger,
			negotiator: negotiator,
			employees:  repos.Employees,
			requests:   repos.Requests,
			markers:    repos.Markers,
			tx:         repos.Tx,
			window:     cfg.SubmissionWindow,
			loc:        cfg.Location,
			now:        cfg.Now,
		},
		machine: &ApprovalStateMachine{
			policy:    policy,
			ledger:    ledger,
			employees: repos.Employees,
			requests:  repos.Requests,
			tx:        repos.Tx,
			now:       cfg.Now,
		},
		accrual: &AccrualEngine{
			plan:      plan,
			ledger:    ledger,
			employees: repos.Employees,
			runs:      repos.Accruals,
			tx:        repos.Tx,
			publisher: publisher,
			now:       cfg.Now,
		},
	}
}

// AvailableLeaveTypes implements leave.LeaveService.
func (s *LeaveServiceImpl) AvailableLeaveTypes(ctx context.Context, actor leave.Actor) ([]leave.LeaveTypeResponse, error) {
	emp, err := s.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	entries := s.policy.Available(emp)
	out := make([]leave.LeaveTypeResponse, 0, len(entries))
	for _, e := range entries {
		item := leave.LeaveTypeResponse{
			Type:                 e.Type,
			DisplayName:          e.DisplayName,
			Unit:                 e.Unit,
			AllowsUnpaidFallback: e.AllowsUnpaidFallback,
		}
		if e.RequiresCredits {
			credit := e.Credit
			balance := emp.Balances.Get(credit)
			item.CreditType = &credit
			item.Balance = &balance
		}
		out = append(out, item)
	}
	return out, nil
}

// Submit implements leave.LeaveService.
func (s *LeaveServiceImpl) Submit(ctx context.Context, actor leave.Actor, req leave.SubmitRequest) (leave.SubmitResult, error) {
	return s.submit(ctx, actor, req, submitOptions{})
}

// SubmitLate implements leave.LeaveService.
func (s *LeaveServiceImpl) SubmitLate(ctx context.Context, actor leave.Actor, req leave.SubmitRequest) (leave.SubmitResult, error) {
	return s.submit(ctx, actor, req, submitOptions{Late: true})
}

func (s *LeaveServiceImpl) submit(ctx context.Context, actor leave.Actor, req leave.SubmitRequest, opts submitOptions) (leave.SubmitResult, error) {
	out, err := s.intake.submit(ctx, actor, req, opts)
	return s.finishSubmit(ctx, actor, req.LeaveType, out, err)
}

// AcceptUnpaid implements leave.LeaveService.
func (s *LeaveServiceImpl) AcceptUnpaid(ctx context.Context, actor leave.Actor, token string) (leave.SubmitResult, error) {
	out, err := s.intake.acceptUnpaid(ctx, actor, token)
	return s.finishSubmit(ctx, actor, leave.TypeUnpaid, out, err)
}

// DeclineNegotiation implements leave.LeaveService. No request is filed and the
// offer token cannot be accepted afterwards.
func (s *LeaveServiceImpl) DeclineNegotiation(ctx context.Context, actor leave.Actor, token string) error {
	r, err := s.negotiator.Redeem(ctx, actor, token)
	if err != nil {
		return err
	}
	p := r.payload
	metrics.LeaveSubmissions.WithLabelValues(string(p.Request.LeaveType), "declined").Inc()
	slog.Info("Unpaid fallback declined", "employee_id", actor.EmployeeID, "leave_type", p.Request.LeaveType)
	return nil
}

func (s *LeaveServiceImpl) finishSubmit(ctx context.Context, actor leave.Actor, leaveType leave.LeaveType, out intakeOutcome, err error) (leave.SubmitResult, error) {
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, leave.ErrConcurrencyConflict) {
			outcome = "duplicate"
		}
		metrics.LeaveSubmissions.WithLabelValues(string(leaveType), outcome).Inc()
		return leave.SubmitResult{}, err
	}

	if out.Prompt != nil {
		metrics.LeaveSubmissions.WithLabelValues(string(leaveType), "negotiation").Inc()
		return leave.SubmitResult{Negotiation: out.Prompt}, nil
	}

	metrics.LeaveSubmissions.WithLabelValues(string(leaveType), "created").Inc()
	s.publish(ctx, leave.Event{
		Kind:       leave.EventSubmitted,
		Request:    out.Request,
		ActorID:    actor.UserID,
		EmployeeID: out.Request.EmployeeID,
		OccurredAt: s.now(),
	})
	resp := leave.NewLeaveRequestResponse(*out.Request)
	return leave.SubmitResult{Request: &resp}, nil
}

// Decide implements leave.LeaveService.
func (s *LeaveServiceImpl) Decide(ctx context.Context, actor leave.Actor, req leave.DecisionRequest) (leave.LeaveRequestResponse, error) {
	r, err := s.machine.Decide(ctx, actor, req)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	metrics.ApprovalDecisions.WithLabelValues(string(req.Stage), string(req.Decision)).Inc()

	kind := leave.EventStageApproved
	switch {
	case r.Status == leave.StatusRejected:
		kind = leave.EventRejected
	case r.Status == leave.StatusApproved:
		kind = leave.EventFinalApproved
	}
	s.publish(ctx, leave.Event{
		Kind:       kind,
		Request:    &r,
		Stage:      req.Stage,
		ActorID:    actor.UserID,
		Notes:      req.Notes,
		EmployeeID: r.EmployeeID,
		OccurredAt: s.now(),
	})
	return leave.NewLeaveRequestResponse(r), nil
}

// Cancel implements leave.LeaveService.
func (s *LeaveServiceImpl) Cancel(ctx context.Context, actor leave.Actor, requestID string, req leave.CancelRequest) (leave.LeaveRequestResponse, error) {
	r, err := s.machine.Cancel(ctx, actor, requestID, req.Reason)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	s.publish(ctx, leave.Event{
		Kind:       leave.EventCancelled,
		Request:    &r,
		ActorID:    actor.UserID,
		Notes:      req.Reason,
		EmployeeID: r.EmployeeID,
		OccurredAt: s.now(),
	})
	return leave.NewLeaveRequestResponse(r), nil
}

// GetRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) GetRequest(ctx context.Context, actor leave.Actor, requestID string) (leave.LeaveRequestResponse, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := s.canView(ctx, actor, r); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return leave.NewLeaveRequestResponse(r), nil
}

// ListMyRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMyRequests(ctx context.Context, actor leave.Actor) ([]leave.LeaveRequestResponse, error) {
	requests, err := s.requests.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	out := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, leave.NewLeaveRequestResponse(r))
	}
	return out, nil
}

// ListAwaitingStage implements leave.LeaveService. Department heads only see
// their own department's requests.
func (s *LeaveServiceImpl) ListAwaitingStage(ctx context.Context, actor leave.Actor, stage leave.Stage) ([]leave.LeaveRequestResponse, error) {
	t, ok := leave.TransitionFor(stage)
	if !ok {
		return nil, fmt.Errorf("%w: unknown stage %q", leave.ErrPolicyViolation, stage)
	}
	if actor.Role != t.Role && actor.Role != employee.RoleAdmin {
		return nil, leave.ErrForbidden
	}

	requests, err := s.requests.ListByStatus(ctx, t.From)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	var department string
	if stage == leave.StageDeptHead && actor.Role == employee.RoleDeptHead {
		approver, err := s.employees.GetByID(ctx, actor.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to get approver: %w", err)
		}
		department = approver.DepartmentID
	}

	out := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		if r.EmployeeID == actor.EmployeeID {
			continue
		}
		if department != "" {
			requester, err := s.employees.GetByID(ctx, r.EmployeeID)
			if err != nil || requester.DepartmentID != department {
				continue
			}
		}
		out = append(out, leave.NewLeaveRequestResponse(r))
	}
	return out, nil
}

// Balances implements leave.LeaveService.
func (s *LeaveServiceImpl) Balances(ctx context.Context, actor leave.Actor) ([]leave.BalanceResponse, error) {
	emp, err := s.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	out := make([]leave.BalanceResponse, 0, len(employee.AllCreditTypes()))
	for _, c := range employee.AllCreditTypes() {
		unit := leave.UnitDays
		if c == employee.CreditCTO {
			unit = leave.UnitHours
		}
		out = append(out, leave.BalanceResponse{CreditType: c, Balance: emp.Balances.Get(c), Unit: unit})
	}
	return out, nil
}

// CreditHistory implements leave.LeaveService.
func (s *LeaveServiceImpl) CreditHistory(ctx context.Context, actor leave.Actor, employeeID string) ([]leave.HistoryResponse, error) {
	if employeeID != actor.EmployeeID && !isCreditAdmin(actor.Role) {
		return nil, leave.ErrForbidden
	}
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	entries, err := s.ledger.History(ctx, employeeID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit history: %w", err)
	}
	out := make([]leave.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newHistoryResponse(e))
	}
	return out, nil
}

// AdjustCredits implements leave.LeaveService.
func (s *LeaveServiceImpl) AdjustCredits(ctx context.Context, actor leave.Actor, req leave.AdjustCreditsRequest) (leave.HistoryResponse, error) {
	if !isCreditAdmin(actor.Role) {
		return leave.HistoryResponse{}, leave.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return leave.HistoryResponse{}, err
	}
	if _, err := s.employees.GetByID(ctx, req.EmployeeID); err != nil {
		return leave.HistoryResponse{}, err
	}

	entry, err := s.ledger.Grant(ctx, leave.GrantInput{
		EmployeeID: req.EmployeeID,
		CreditType: req.CreditType,
		Amount:     req.Amount,
		Source:     leave.SourceAdjustment,
		Notes:      req.Notes,
		CreatedBy:  &actor.UserID,
	})
	if err != nil {
		return leave.HistoryResponse{}, err
	}
	slog.Info("Credits adjusted",
		"employee_id", req.EmployeeID,
		"credit_type", req.CreditType,
		"amount", req.Amount.String(),
		"by", actor.UserID,
	)
	return newHistoryResponse(entry), nil
}

// RunAccrual implements leave.LeaveService.
func (s *LeaveServiceImpl) RunAccrual(ctx context.Context, period time.Time) (leave.AccrualReport, error) {
	return s.accrual.Run(ctx, period)
}

// ExpiryAlerts implements leave.LeaveService.
func (s *LeaveServiceImpl) ExpiryAlerts(ctx context.Context, now time.Time) (int, error) {
	return s.accrual.ExpiryAlerts(ctx, now)
}

func (s *LeaveServiceImpl) canView(ctx context.Context, actor leave.Actor, r leave.LeaveRequest) error {
	if r.EmployeeID == actor.EmployeeID {
		return nil
	}
	switch actor.Role {
	case employee.RoleHR, employee.RoleDirector, employee.RoleExecutive, employee.RoleAdmin:
		return nil
	case employee.RoleDeptHead:
		requester, err := s.employees.GetByID(ctx, r.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get requester: %w", err)
		}
		approver, err := s.employees.GetByID(ctx, actor.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to get approver: %w", err)
		}
		if requester.DepartmentID == approver.DepartmentID {
			return nil
		}
	}
	return leave.ErrForbidden
}

// publish hands an event to the notification collaborator. Failures are
// logged and never reach the caller.
func (s *LeaveServiceImpl) publish(ctx context.Context, event leave.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("Failed to publish leave event", "kind", event.Kind, "employee_id", event.EmployeeID, "error", err)
	}
}

func isCreditAdmin(role employee.Role) bool {
	return role == employee.RoleHR || role == employee.RoleAdmin
}

func newHistoryResponse(e leave.CreditHistoryEntry) leave.HistoryResponse {
	return leave.HistoryResponse{
		ID:             e.ID,
		CreditType:     e.CreditType,
		Amount:         e.Amount,
		BalanceAfter:   e.BalanceAfter,
		EffectiveDate:  e.EffectiveDate.Format(leave.DateLayout),
		Source:         e.Source,
		LeaveRequestID: e.LeaveRequestID,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt,
	}
}
