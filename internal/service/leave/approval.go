package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ApprovalStateMachine owns status and approval fields of a leave request. It
// applies the static transition table and triggers deduction or refund at the
// points the credit policy defines.
type ApprovalStateMachine struct {
	policy    *leave.CreditPolicy
	ledger    *CreditLedger
	employees employee.EmployeeRepository
	requests  leave.LeaveRequestRepository
	tx        leave.TxManager
	now       func() time.Time
}

// Decide records one stage decision on a request.
func (m *ApprovalStateMachine) Decide(ctx context.Context, actor leave.Actor, req leave.DecisionRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}

	var result leave.LeaveRequest
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := m.requests.GetByIDForUpdate(ctx, req.RequestID)
		if err != nil {
			return err
		}

		if r.Status.IsTerminal() {
			return fmt.Errorf("%w: request is %s", leave.ErrRequestFinalized, r.Status)
		}
		current, ok := leave.CurrentStage(r.Status)
		if !ok {
			return fmt.Errorf("%w: no stage handles status %s", leave.ErrPolicyViolation, r.Status)
		}
		if current.Stage != req.Stage {
			return &leave.OutOfSequenceError{Attempted: req.Stage, Expected: current.Stage, Status: r.Status}
		}
		if err := m.authorize(ctx, actor, current, r); err != nil {
			return err
		}

		now := m.now()
		approval := leave.Approval{
			RequestID:  r.ID,
			Stage:      current.Stage,
			ApproverID: actor.UserID,
			Decision:   req.Decision,
			Notes:      req.Notes,
			DecidedAt:  now,
		}

		switch req.Decision {
		case leave.DecisionReject:
			r.Status = leave.StatusRejected
			if err := m.refundAll(ctx, &r, actor, "rejected at "+string(current.Stage)); err != nil {
				return err
			}
		case leave.DecisionApprove:
			if req.ApprovedDays != nil {
				if *req.ApprovedDays < 1 || *req.ApprovedDays > r.ApprovedDays {
					return validator.ValidationErrors{{Field: "approved_days", Message: leave.ErrInvalidApprovedDays.Error()}}
				}
				r.ApprovedDays = *req.ApprovedDays
			}
			days := r.ApprovedDays
			approval.ApprovedDays = &days
			r.Status = current.To
			if current.IsFinal() {
				if err := m.settle(ctx, &r, actor); err != nil {
					return err
				}
			}
		}

		if err := m.requests.UpdateLifecycle(ctx, r); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		saved, err := m.requests.AppendApproval(ctx, approval)
		if err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}
		r.Approvals = append(r.Approvals, saved)
		r.UpdatedAt = now
		result = r
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return result, nil
}

// Cancel withdraws a pending request on behalf of its owner.
func (m *ApprovalStateMachine) Cancel(ctx context.Context, actor leave.Actor, requestID, reason string) (leave.LeaveRequest, error) {
	var result leave.LeaveRequest
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := m.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if r.EmployeeID != actor.EmployeeID {
			return leave.ErrForbidden
		}
		if r.Status != leave.StatusPending {
			return fmt.Errorf("%w: request is %s", leave.ErrCannotCancel, r.Status)
		}

		r.Status = leave.StatusCancelled
		notes := "cancelled by requester"
		if reason != "" {
			notes += ": " + reason
		}
		if err := m.refundAll(ctx, &r, actor, notes); err != nil {
			return err
		}
		if err := m.requests.UpdateLifecycle(ctx, r); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		r.UpdatedAt = m.now()
		result = r
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return result, nil
}

func (m *ApprovalStateMachine) authorize(ctx context.Context, actor leave.Actor, t leave.Transition, r leave.LeaveRequest) error {
	if actor.Role != t.Role {
		return fmt.Errorf("%w: stage %s requires role %s", leave.ErrForbidden, t.Stage, t.Role)
	}
	if actor.EmployeeID == r.EmployeeID {
		return fmt.Errorf("%w: cannot decide on your own request", leave.ErrForbidden)
	}
	if t.Stage != leave.StageDeptHead {
		return nil
	}

	requester, err := m.employees.GetByID(ctx, r.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get requester: %w", err)
	}
	approver, err := m.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get approver: %w", err)
	}
	if requester.DepartmentID != approver.DepartmentID {
		return fmt.Errorf("%w: department head of another department", leave.ErrForbidden)
	}
	return nil
}

// settle runs when the final stage approves. Deferred types are deducted for
// the approved days; types deducted at submission get back the hours for
// days removed by partial approval.
func (m *ApprovalStateMachine) settle(ctx context.Context, r *leave.LeaveRequest, actor leave.Actor) error {
	entry, err := m.policy.Resolve(r.LeaveType)
	if err != nil {
		return err
	}
	if !entry.RequiresCredits {
		return nil
	}

	if entry.DeductedAtSubmission() {
		excess := refundable(*r).Sub(entry.Required(r.ApprovedDays))
		if !excess.IsPositive() {
			return nil
		}
		return m.refund(ctx, r, actor, excess, fmt.Sprintf("partial approval, %d of %d day(s)", r.ApprovedDays, r.DaysRequested))
	}

	if r.DeductedAt != nil {
		return fmt.Errorf("%w: credits for request %s were already deducted", leave.ErrPolicyViolation, r.ID)
	}
	h, err := m.ledger.Deduct(ctx, r.EmployeeID, r.LeaveType, r.ApprovedDays, r.ID, &actor.UserID)
	if err != nil {
		return err
	}
	deductedAt := h.CreatedAt
	r.CreditsDeducted = h.Amount.Neg()
	r.DeductedAt = &deductedAt
	return nil
}

// refundAll returns whatever is still held for a request that will not be taken.
func (m *ApprovalStateMachine) refundAll(ctx context.Context, r *leave.LeaveRequest, actor leave.Actor, why string) error {
	amount := refundable(*r)
	if r.DeductedAt == nil || !amount.IsPositive() {
		return nil
	}
	return m.refund(ctx, r, actor, amount, why)
}

func (m *ApprovalStateMachine) refund(ctx context.Context, r *leave.LeaveRequest, actor leave.Actor, amount decimal.Decimal, why string) error {
	entry, err := m.policy.Resolve(r.LeaveType)
	if err != nil {
		return err
	}
	h, err := m.ledger.Grant(ctx, leave.GrantInput{
		EmployeeID: r.EmployeeID,
		CreditType: entry.Credit,
		Amount:     amount,
		Source:     leave.SourceRefund,
		RequestID:  &r.ID,
		Notes:      why,
		CreatedBy:  &actor.UserID,
	})
	if err != nil {
		return fmt.Errorf("%w: refund for request %s failed: %v", leave.ErrPolicyViolation, r.ID, err)
	}
	refundedAt := h.CreatedAt
	r.CreditsRefunded = r.CreditsRefunded.Add(h.Amount)
	r.RefundedAt = &refundedAt
	return nil
}
