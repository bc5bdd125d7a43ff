package leave

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
)

// submitOptions distinguishes the entry paths that share one intake pipeline.
type submitOptions struct {
	Late bool
	// ConvertedFrom is set when an accepted negotiation refiles the request as unpaid.
	ConvertedFrom *leave.LeaveType
}

// intakeOutcome carries exactly one of Request or Prompt.
type intakeOutcome struct {
	Request *leave.LeaveRequest
	Prompt  *leave.NegotiationPrompt
}

// LeaveRequestIntake validates a submission, consults the policy and ledger,
// and either persists a pending request or returns a negotiation prompt.
type LeaveRequestIntake struct {
	policy     *leave.CreditPolicy
	ledger     *CreditLedger
	negotiator *InsufficientCreditNegotiator
	employees  employee.EmployeeRepository
	requests   leave.LeaveRequestRepository
	markers    leave.SubmissionMarkerRepository
	tx         leave.TxManager
	window     time.Duration
	loc        *time.Location
	now        func() time.Time
}

func (in *LeaveRequestIntake) submit(ctx context.Context, actor leave.Actor, req leave.SubmitRequest, opts submitOptions) (intakeOutcome, error) {
	if err := req.Validate(); err != nil {
		return intakeOutcome{}, err
	}
	if req.LeaveType == leave.TypeUnpaid && opts.ConvertedFrom == nil {
		return intakeOutcome{}, validator.ValidationErrors{{Field: "leave_type", Message: leave.ErrUnpaidNotSelectable.Error()}}
	}

	requested, err := in.policy.Resolve(req.LeaveType)
	if err != nil {
		return intakeOutcome{}, err
	}

	emp, err := in.employees.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return intakeOutcome{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if err := in.policy.CheckEligibility(emp, requested); err != nil {
		return intakeOutcome{}, err
	}

	span, err := parseSpan(req)
	if err != nil {
		return intakeOutcome{}, err
	}
	if span.Weekdays == 0 {
		return intakeOutcome{}, leave.ErrNoWorkingDays
	}

	today := dateOnly(in.now(), in.loc)
	if span.Start.Before(today) && !opts.Late {
		return intakeOutcome{}, leave.ErrLateFilingRequired
	}
	if opts.Late && (req.LateJustification == nil || validator.IsEmpty(*req.LateJustification)) {
		return intakeOutcome{}, leave.ErrJustificationRequired
	}

	stored := requested
	if opts.ConvertedFrom != nil {
		if !requested.AllowsUnpaidFallback {
			return intakeOutcome{}, fmt.Errorf("%w: %s cannot fall back to unpaid leave", leave.ErrPolicyViolation, requested.DisplayName)
		}
		stored, err = in.policy.Resolve(leave.TypeUnpaid)
		if err != nil {
			return intakeOutcome{}, err
		}
	} else {
		s, err := in.ledger.CheckSufficiency(emp, requested.Type, span.Weekdays)
		if err != nil {
			return intakeOutcome{}, err
		}
		if !s.Sufficient {
			if !requested.AllowsUnpaidFallback {
				return intakeOutcome{}, fmt.Errorf("%w: %s", leave.ErrInsufficientBalance, s.Message)
			}
			prompt, err := in.negotiator.Offer(emp, req, opts.Late, requested, s)
			if err != nil {
				return intakeOutcome{}, err
			}
			return intakeOutcome{Prompt: prompt}, nil
		}
	}

	key := submissionKey(emp.ID, requested.Type, span)
	claimed, err := in.markers.Claim(ctx, key, in.now().Add(in.window))
	if err != nil {
		return intakeOutcome{}, fmt.Errorf("failed to claim submission marker: %w", err)
	}
	if !claimed {
		return intakeOutcome{}, leave.ErrConcurrencyConflict
	}

	request := leave.LeaveRequest{
		EmployeeID:    emp.ID,
		LeaveType:     stored.Type,
		StartDate:     span.Start,
		EndDate:       span.End,
		SelectedDates: span.Selected,
		DaysRequested: span.Weekdays,
		ApprovedDays:  span.Weekdays,
		Status:        leave.StatusPending,
		IsLate:        opts.Late,
		DocumentPath:  req.DocumentPath,
		Reason:        strings.TrimSpace(req.Reason),
		SubmittedBy:   actor.UserID,
	}
	if opts.ConvertedFrom != nil {
		original := *opts.ConvertedFrom
		request.OriginalLeaveType = &original
	}
	if opts.Late {
		justification := strings.TrimSpace(*req.LateJustification)
		request.LateJustification = &justification
	}

	err = in.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := in.ledger.Lock(ctx, emp.ID); err != nil {
			return err
		}
		if err := in.checkOverlap(ctx, emp.ID, span); err != nil {
			return err
		}

		created, err := in.requests.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		if stored.DeductedAtSubmission() {
			entry, err := in.ledger.Deduct(ctx, emp.ID, stored.Type, span.Weekdays, created.ID, &actor.UserID)
			if err != nil {
				return err
			}
			deductedAt := entry.CreatedAt
			created.CreditsDeducted = entry.Amount.Neg()
			created.DeductedAt = &deductedAt
			if err := in.requests.UpdateLifecycle(ctx, created); err != nil {
				return fmt.Errorf("failed to record deduction: %w", err)
			}
		}

		request = created
		return nil
	})
	if err != nil {
		if relErr := in.markers.Release(context.WithoutCancel(ctx), key); relErr != nil {
			slog.Error("Failed to release submission marker", "key", key, "error", relErr)
		}
		return intakeOutcome{}, err
	}

	return intakeOutcome{Request: &request}, nil
}

// acceptUnpaid redeems a negotiation token and refiles its payload as unpaid.
func (in *LeaveRequestIntake) acceptUnpaid(ctx context.Context, actor leave.Actor, token string) (intakeOutcome, error) {
	r, err := in.negotiator.Redeem(ctx, actor, token)
	if err != nil {
		return intakeOutcome{}, err
	}
	original := r.payload.Request.LeaveType
	out, err := in.submit(ctx, actor, r.payload.Request, submitOptions{Late: r.payload.Late, ConvertedFrom: &original})
	if err != nil {
		in.negotiator.Restore(ctx, r)
	}
	return out, err
}

// checkOverlap rejects a span sharing a weekday with any request of the
// employee that is still pending or was approved.
func (in *LeaveRequestIntake) checkOverlap(ctx context.Context, employeeID string, span dateSpan) error {
	existing, err := in.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to list leave requests: %w", err)
	}
	for _, r := range existing {
		if r.Status == leave.StatusRejected || r.Status == leave.StatusCancelled {
			continue
		}
		if day, ok := span.sharedDay(spanOf(r)); ok {
			return fmt.Errorf("%w: %s is already covered by request %s", leave.ErrOverlappingRequest, day, r.ID)
		}
	}
	return nil
}

// submissionKey is the content hash identifying duplicate submissions.
func submissionKey(employeeID string, t leave.LeaveType, span dateSpan) string {
	var b strings.Builder
	b.WriteString(employeeID)
	b.WriteString("|")
	b.WriteString(string(t))
	b.WriteString("|")
	b.WriteString(span.Start.Format(leave.DateLayout))
	b.WriteString("|")
	b.WriteString(span.End.Format(leave.DateLayout))
	for _, d := range span.Selected {
		b.WriteString("|")
		b.WriteString(d.Format(leave.DateLayout))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
