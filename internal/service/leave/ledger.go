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
	"github.com/shopspring/decimal"
)

// CreditLedger is the only writer of employee balances. Every mutation locks
// the employee row and appends one history entry in the same transaction.
type CreditLedger struct {
	policy  *leave.CreditPolicy
	credits leave.CreditRepository
	tx      leave.TxManager
	now     func() time.Time
}

func NewCreditLedger(policy *leave.CreditPolicy, credits leave.CreditRepository, tx leave.TxManager) *CreditLedger {
	return &CreditLedger{
		policy:  policy,
		credits: credits,
		tx:      tx,
		now:     time.Now,
	}
}

// CheckSufficiency compares the quantity a request of weekdays would draw
// against the employee's current balance.
func (l *CreditLedger) CheckSufficiency(emp employee.Employee, leaveType leave.LeaveType, weekdays int) (leave.Sufficiency, error) {
	entry, err := l.policy.Resolve(leaveType)
	if err != nil {
		return leave.Sufficiency{}, err
	}

	required := entry.Required(weekdays)
	if !entry.RequiresCredits {
		return leave.Sufficiency{Sufficient: true, Required: required, Unit: entry.Unit}, nil
	}

	available := emp.Balances.Get(entry.Credit)
	s := leave.Sufficiency{
		Sufficient: available.GreaterThanOrEqual(required),
		Required:   required,
		Available:  available,
		Unit:       entry.Unit,
	}
	if !s.Sufficient {
		s.Message = fmt.Sprintf("Insufficient %s credits: %s %s required, %s available.",
			entry.DisplayName, required.String(), entry.Unit, available.String())
	}
	return s, nil
}

// Lock holds the employee's balance row for the rest of the caller's
// transaction, so submissions of one employee run one at a time.
func (l *CreditLedger) Lock(ctx context.Context, employeeID string) error {
	if _, err := l.credits.LockBalances(ctx, employeeID); err != nil {
		return fmt.Errorf("failed to lock balances: %w", err)
	}
	return nil
}

// Deduct draws the credits for weekdays of leaveType from the employee's
// balance. It re-checks the balance under the row lock and fails with
// ErrInsufficientBalance even when an earlier sufficiency check passed.
func (l *CreditLedger) Deduct(ctx context.Context, employeeID string, leaveType leave.LeaveType, weekdays int, requestID string, actorID *string) (leave.CreditHistoryEntry, error) {
	entry, err := l.policy.Resolve(leaveType)
	if err != nil {
		return leave.CreditHistoryEntry{}, err
	}
	if !entry.RequiresCredits {
		return leave.CreditHistoryEntry{}, fmt.Errorf("%w: %s consumes no credits", leave.ErrPolicyViolation, entry.DisplayName)
	}
	amount := entry.Required(weekdays)

	var out leave.CreditHistoryEntry
	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		balances, err := l.credits.LockBalances(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}
		available := balances.Get(entry.Credit)
		if available.LessThan(amount) {
			return fmt.Errorf("%w: %s %s required, %s available", leave.ErrInsufficientBalance, amount, entry.Unit, available)
		}

		out, err = l.apply(ctx, leave.GrantInput{
			EmployeeID:    employeeID,
			CreditType:    entry.Credit,
			Amount:        amount.Neg(),
			EffectiveDate: l.now(),
			Source:        leave.SourceDeduction,
			RequestID:     &requestID,
			Notes:         fmt.Sprintf("%s, %d day(s)", entry.DisplayName, weekdays),
			CreatedBy:     actorID,
		})
		return err
	})
	if err != nil {
		return leave.CreditHistoryEntry{}, err
	}
	return out, nil
}

// Grant adds (or, for adjustments and expiry, removes) credits outside of a
// leave deduction. It always appends history.
func (l *CreditLedger) Grant(ctx context.Context, in leave.GrantInput) (leave.CreditHistoryEntry, error) {
	if !in.CreditType.IsValid() {
		return leave.CreditHistoryEntry{}, employee.ErrInvalidCreditType
	}
	if in.Amount.IsZero() {
		return leave.CreditHistoryEntry{}, fmt.Errorf("%w: grant amount must not be zero", leave.ErrPolicyViolation)
	}
	if in.EffectiveDate.IsZero() {
		in.EffectiveDate = l.now()
	}

	var out leave.CreditHistoryEntry
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.credits.LockBalances(ctx, in.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}
		var err error
		out, err = l.apply(ctx, in)
		return err
	})
	if err != nil {
		return leave.CreditHistoryEntry{}, err
	}
	return out, nil
}

// Expire forfeits the whole remaining balance of credit. It reports false when
// there was nothing to forfeit.
func (l *CreditLedger) Expire(ctx context.Context, employeeID string, credit employee.CreditType, effective time.Time, notes string) (leave.CreditHistoryEntry, bool, error) {
	var (
		out     leave.CreditHistoryEntry
		expired bool
	)
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		balances, err := l.credits.LockBalances(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}
		remaining := balances.Get(credit)
		if !remaining.IsPositive() {
			return nil
		}
		out, err = l.apply(ctx, leave.GrantInput{
			EmployeeID:    employeeID,
			CreditType:    credit,
			Amount:        remaining.Neg(),
			EffectiveDate: effective,
			Source:        leave.SourceExpiry,
			Notes:         notes,
		})
		expired = err == nil
		return err
	})
	return out, expired, err
}

func (l *CreditLedger) History(ctx context.Context, employeeID string, credit *employee.CreditType) ([]leave.CreditHistoryEntry, error) {
	return l.credits.ListHistory(ctx, employeeID, credit)
}

// apply must run inside a transaction that already holds the balance lock.
func (l *CreditLedger) apply(ctx context.Context, in leave.GrantInput) (leave.CreditHistoryEntry, error) {
	balanceAfter, err := l.credits.ApplyDelta(ctx, in.EmployeeID, in.CreditType, in.Amount)
	if err != nil {
		if errors.Is(err, leave.ErrNegativeBalance) {
			return leave.CreditHistoryEntry{}, fmt.Errorf("%w: %s would drop below zero", leave.ErrInsufficientBalance, in.CreditType)
		}
		return leave.CreditHistoryEntry{}, fmt.Errorf("failed to update balance: %w", err)
	}

	entry, err := l.credits.AppendHistory(ctx, leave.CreditHistoryEntry{
		EmployeeID:     in.EmployeeID,
		CreditType:     in.CreditType,
		Amount:         in.Amount,
		BalanceAfter:   balanceAfter,
		EffectiveDate:  in.EffectiveDate,
		Source:         in.Source,
		LeaveRequestID: in.RequestID,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
	})
	if err != nil {
		return leave.CreditHistoryEntry{}, fmt.Errorf("failed to append credit history: %w", err)
	}

	metrics.CreditMutations.WithLabelValues(string(in.CreditType), string(in.Source)).Inc()
	slog.Debug("Credit ledger updated",
		"employee_id", in.EmployeeID,
		"credit_type", in.CreditType,
		"amount", in.Amount.String(),
		"balance_after", balanceAfter.String(),
		"source", in.Source,
	)
	return entry, nil
}

// refundable is what remains of a request's deduction after earlier refunds.
func refundable(req leave.LeaveRequest) decimal.Decimal {
	return req.CreditsDeducted.Sub(req.CreditsRefunded)
}
