package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

// AccrualPlan holds the grant amounts, in days.
type AccrualPlan struct {
	MonthlyVacation        decimal.Decimal
	MonthlySick            decimal.Decimal
	AnnualSpecialPrivilege decimal.Decimal
}

func DefaultAccrualPlan() AccrualPlan {
	return AccrualPlan{
		MonthlyVacation:        decimal.RequireFromString("1.25"),
		MonthlySick:            decimal.RequireFromString("1.25"),
		AnnualSpecialPrivilege: decimal.NewFromInt(3),
	}
}

// AccrualEngine grants periodic credits through the ledger. Each employee is
// processed in its own transaction.
type AccrualEngine struct {
	plan      AccrualPlan
	ledger    *CreditLedger
	employees employee.EmployeeRepository
	runs      leave.AccrualRepository
	tx        leave.TxManager
	publisher leave.EventPublisher
	now       func() time.Time
}

// Run accrues the month containing period. A second run for the same month
// grants nothing.
func (a *AccrualEngine) Run(ctx context.Context, period time.Time) (leave.AccrualReport, error) {
	started := time.Now()
	defer func() {
		metrics.AccrualDuration.Observe(time.Since(started).Seconds())
	}()

	month := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	report := leave.AccrualReport{Period: month.Format("2006-01")}

	employees, err := a.employees.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list active employees: %w", err)
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		granted, err := a.accrueEmployee(ctx, emp, month)
		switch {
		case err != nil:
			report.Errored++
			report.Errors = append(report.Errors, leave.AccrualError{EmployeeID: emp.ID, Error: err.Error()})
			metrics.AccrualEmployees.WithLabelValues("errored").Inc()
			slog.Error("Accrual failed for employee", "employee_id", emp.ID, "period", report.Period, "error", err)
		case granted:
			report.Processed++
			metrics.AccrualEmployees.WithLabelValues("processed").Inc()
		default:
			report.Skipped++
			metrics.AccrualEmployees.WithLabelValues("skipped").Inc()
		}
	}

	slog.Info("Accrual run finished",
		"period", report.Period,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"errored", report.Errored,
	)
	return report, nil
}

// accrueEmployee reports whether anything was granted.
func (a *AccrualEngine) accrueEmployee(ctx context.Context, emp employee.Employee, month time.Time) (bool, error) {
	granted := false
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		granted = false
		monthly := []struct {
			credit employee.CreditType
			amount decimal.Decimal
		}{
			{employee.CreditVacation, a.plan.MonthlyVacation},
			{employee.CreditSick, a.plan.MonthlySick},
		}
		for _, g := range monthly {
			ok, err := a.grantOnce(ctx, emp.ID, g.credit, month.Format("2006-01"), g.amount, month)
			if err != nil {
				return err
			}
			granted = granted || ok
		}

		if month.Month() != time.January {
			return nil
		}

		year := month.Format("2006")
		isNew, err := a.runs.Record(ctx, leave.AccrualRun{
			EmployeeID: emp.ID,
			CreditType: employee.CreditSpecialPrivilege,
			Period:     year,
			Amount:     a.plan.AnnualSpecialPrivilege,
			CreatedAt:  a.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to record accrual run: %w", err)
		}
		if !isNew {
			return nil
		}

		notes := fmt.Sprintf("unused special privilege leave for %d forfeited", month.Year()-1)
		if _, _, err := a.ledger.Expire(ctx, emp.ID, employee.CreditSpecialPrivilege, month, notes); err != nil {
			return fmt.Errorf("failed to expire special privilege leave: %w", err)
		}
		if _, err := a.ledger.Grant(ctx, leave.GrantInput{
			EmployeeID:    emp.ID,
			CreditType:    employee.CreditSpecialPrivilege,
			Amount:        a.plan.AnnualSpecialPrivilege,
			EffectiveDate: month,
			Source:        leave.SourceAccrual,
			Notes:         "annual special privilege leave " + year,
		}); err != nil {
			return fmt.Errorf("failed to grant special privilege leave: %w", err)
		}
		granted = true
		return nil
	})
	return granted, err
}

func (a *AccrualEngine) grantOnce(ctx context.Context, employeeID string, credit employee.CreditType, period string, amount decimal.Decimal, effective time.Time) (bool, error) {
	isNew, err := a.runs.Record(ctx, leave.AccrualRun{
		EmployeeID: employeeID,
		CreditType: credit,
		Period:     period,
		Amount:     amount,
		CreatedAt:  a.now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to record accrual run: %w", err)
	}
	if !isNew {
		return false, nil
	}

	if _, err := a.ledger.Grant(ctx, leave.GrantInput{
		EmployeeID:    employeeID,
		CreditType:    credit,
		Amount:        amount,
		EffectiveDate: effective,
		Source:        leave.SourceAccrual,
		Notes:         fmt.Sprintf("monthly accrual %s", period),
	}); err != nil {
		return false, fmt.Errorf("failed to grant %s: %w", credit, err)
	}
	return true, nil
}

// ExpiryAlerts warns, during December, every active employee whose special
// privilege balance will be forfeited in January. Each employee is alerted once
// per year.
func (a *AccrualEngine) ExpiryAlerts(ctx context.Context, now time.Time) (int, error) {
	if now.Month() != time.December {
		return 0, nil
	}

	employees, err := a.employees.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	period := now.Format("2006") + "-alert"
	sent := 0
	for _, emp := range employees {
		remaining := emp.Balances.Get(employee.CreditSpecialPrivilege)
		if !remaining.IsPositive() {
			continue
		}

		isNew, err := a.runs.Record(ctx, leave.AccrualRun{
			EmployeeID: emp.ID,
			CreditType: employee.CreditSpecialPrivilege,
			Period:     period,
			Amount:     remaining,
			CreatedAt:  a.now(),
		})
		if err != nil {
			slog.Error("Failed to record expiry alert", "employee_id", emp.ID, "error", err)
			continue
		}
		if !isNew {
			continue
		}

		event := leave.Event{
			Kind:       leave.EventExpiryAlert,
			EmployeeID: emp.ID,
			CreditType: employee.CreditSpecialPrivilege,
			Amount:     remaining,
			OccurredAt: now,
		}
		if a.publisher != nil {
			if err := a.publisher.Publish(ctx, event); err != nil {
				slog.Error("Failed to publish expiry alert", "employee_id", emp.ID, "error", err)
			}
		}
		sent++
	}
	return sent, nil
}
