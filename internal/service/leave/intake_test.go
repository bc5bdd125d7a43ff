package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntake_Submit_CreatesPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "10"))

	resp := env.submit(t, actor, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-13"))

	assert.Equal(t, leave.StatusPending, resp.Status)
	assert.Equal(t, 5, resp.DaysRequested)
	assert.Equal(t, 5, resp.ApprovedDays)
	require.NotNil(t, resp.AwaitingStage)
	assert.Equal(t, leave.StageDeptHead, *resp.AwaitingStage)
	assert.Nil(t, resp.OriginalLeaveType)
	assert.True(t, resp.CreditsDeducted.IsZero(), "vacation is deducted at final approval")
	assert.Equal(t, "10", env.balance(t, actor.EmployeeID, employee.CreditVacation).String())
	assert.Equal(t, []leave.EventKind{leave.EventSubmitted}, env.publisher.kinds())
}

func TestIntake_Submit_ZeroVacationOffersUnpaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")

	res, err := env.svc.Submit(ctx, actor, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11"))
	require.NoError(t, err)

	assert.Nil(t, res.Request)
	require.NotNil(t, res.Negotiation)
	assert.Equal(t, leave.TypeVacation, res.Negotiation.LeaveType)
	assert.Equal(t, "3", res.Negotiation.Required.String())
	assert.Contains(t, res.Negotiation.Message, "Insufficient Vacation Leave credits")
	assert.NotEmpty(t, res.Negotiation.Token)

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, mine, "a prompt persists nothing")

	accepted, err := env.svc.AcceptUnpaid(ctx, actor, res.Negotiation.Token)
	require.NoError(t, err)
	require.NotNil(t, accepted.Request)
	assert.Equal(t, leave.TypeUnpaid, accepted.Request.LeaveType)
	require.NotNil(t, accepted.Request.OriginalLeaveType)
	assert.Equal(t, leave.TypeVacation, *accepted.Request.OriginalLeaveType)
	assert.Equal(t, 3, accepted.Request.DaysRequested)
	assert.Empty(t, env.history(t, actor.EmployeeID))
}

func TestIntake_DeclineNegotiation_PersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")

	res, err := env.svc.Submit(ctx, actor, rangeRequest(leave.TypeSick, "2026-03-09", "2026-03-09"))
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)

	require.NoError(t, env.svc.DeclineNegotiation(ctx, actor, res.Negotiation.Token))

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestIntake_Negotiation_KeepsLateFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")
	justification := "hospitalized, could not file"

	req := rangeRequest(leave.TypeSick, "2026-02-23", "2026-02-24")
	req.LateJustification = &justification
	res, err := env.svc.SubmitLate(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)

	accepted, err := env.svc.AcceptUnpaid(ctx, actor, res.Negotiation.Token)
	require.NoError(t, err)
	require.NotNil(t, accepted.Request)
	assert.True(t, accepted.Request.IsLate)
	require.NotNil(t, accepted.Request.LateJustification)
	assert.Equal(t, justification, *accepted.Request.LateJustification)
}

func TestIntake_AcceptUnpaid_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.addEmployee(t, "ana")
	ben := env.addEmployee(t, "ben")

	res, err := env.svc.Submit(ctx, ana, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-09"))
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)

	_, err = env.svc.AcceptUnpaid(ctx, ana, res.Negotiation.Token+"x")
	assert.ErrorIs(t, err, leave.ErrInvalidToken)

	_, err = env.svc.AcceptUnpaid(ctx, ben, res.Negotiation.Token)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	other := jwt.NewJWTService("another-secret", time.Hour)
	forged, _, err := other.SignNegotiation(ana.EmployeeID, []byte(`{"request":{"leave_type":"vacation"}}`), time.Minute)
	require.NoError(t, err)
	_, err = env.svc.AcceptUnpaid(ctx, ana, forged)
	assert.ErrorIs(t, err, leave.ErrInvalidToken)
}

func TestIntake_CTOShortfall_IsRejectedWithoutPrompt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditCTO, "4"))

	res, err := env.svc.Submit(ctx, actor, rangeRequest(leave.TypeCTO, "2026-03-09", "2026-03-09"))

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Nil(t, res.Negotiation)
	assert.Nil(t, res.Request)
	assert.Equal(t, "4", env.balance(t, actor.EmployeeID, employee.CreditCTO).String())

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestIntake_CTO_DeductedAtSubmission(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditCTO, "20"))

	resp := env.submit(t, actor, rangeRequest(leave.TypeCTO, "2026-03-09", "2026-03-10"))

	assert.Equal(t, "16", resp.CreditsDeducted.String())
	assert.Equal(t, "4", env.balance(t, actor.EmployeeID, employee.CreditCTO).String())

	h := env.history(t, actor.EmployeeID)
	require.Len(t, h, 1)
	assert.Equal(t, leave.SourceDeduction, h[0].Source)
	assert.Equal(t, "-16", h[0].Amount.String())
	require.NotNil(t, h[0].LeaveRequestID)
	assert.Equal(t, resp.ID, *h[0].LeaveRequestID)
}

func TestIntake_UnpaidIsNotDirectlySelectable(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana")

	_, err := env.svc.Submit(context.Background(), actor, rangeRequest(leave.TypeUnpaid, "2026-03-09", "2026-03-09"))

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "leave_type", verrs[0].Field)
}

func TestIntake_Submit_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	female := env.addEmployee(t, "ana", withBalance(employee.CreditPaternity, "7"))
	inactiveEmp := env.addEmployee(t, "old", inactive(), withBalance(employee.CreditVacation, "5"))

	tests := []struct {
		name    string
		actor   leave.Actor
		req     leave.SubmitRequest
		wantErr error
	}{
		{"unknown type", female, rangeRequest("sabbatical", "2026-03-09", "2026-03-09"), leave.ErrUnknownLeaveType},
		{"gender restricted", female, rangeRequest(leave.TypePaternity, "2026-03-09", "2026-03-09"), leave.ErrNotEligible},
		{"role restricted", female, rangeRequest(leave.TypeServiceCredit, "2026-03-09", "2026-03-09"), leave.ErrNotEligible},
		{"inactive account", inactiveEmp, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-09"), leave.ErrNotEligible},
		{"weekend only", female, rangeRequest(leave.TypeStudy, "2026-03-14", "2026-03-15"), leave.ErrNoWorkingDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Submit(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIntake_PastStartRequiresLatePath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditSick, "5"))
	req := rangeRequest(leave.TypeSick, "2026-02-26", "2026-02-27")

	_, err := env.svc.Submit(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrLateFilingRequired)

	_, err = env.svc.SubmitLate(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrJustificationRequired)

	blank := "   "
	req.LateJustification = &blank
	_, err = env.svc.SubmitLate(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrJustificationRequired)

	justification := " fever, no internet access "
	req.LateJustification = &justification
	res, err := env.svc.SubmitLate(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.True(t, res.Request.IsLate)
	require.NotNil(t, res.Request.LateJustification)
	assert.Equal(t, "fever, no internet access", *res.Request.LateJustification)
	assert.Equal(t, 2, res.Request.DaysRequested)
}

func TestIntake_LatePath_AppliesCTORules(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditCTO, "4"))
	justification := "forgot to file"

	req := rangeRequest(leave.TypeCTO, "2026-02-27", "2026-02-27")
	req.LateJustification = &justification
	res, err := env.svc.SubmitLate(context.Background(), actor, req)

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Nil(t, res.Negotiation)
}

func TestIntake_DuplicateWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "10"))
	req := rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-10")

	env.submit(t, actor, req)

	_, err := env.svc.Submit(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrConcurrencyConflict)

	other := rangeRequest(leave.TypeVacation, "2026-03-11", "2026-03-11")
	env.submit(t, actor, other)

	env.clock.Advance(2 * time.Minute)
	_, err = env.svc.Submit(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest, "an expired marker does not reopen covered dates")

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestIntake_RejectsOverlapWithActiveRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "10"), withBalance(employee.CreditSick, "5"))

	first := env.submit(t, actor, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11"))

	_, err := env.svc.Submit(ctx, actor, leave.SubmitRequest{
		LeaveType:     leave.TypeSick,
		SelectedDates: []string{"2026-03-16", "2026-03-10"},
		Reason:        "check-up",
	})
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)
	assert.Contains(t, err.Error(), "2026-03-10")

	// Adjacent weekdays and weekends stay free.
	env.submit(t, actor, rangeRequest(leave.TypeSick, "2026-03-12", "2026-03-12"))
	env.submit(t, actor, leave.SubmitRequest{
		LeaveType:     leave.TypeSick,
		SelectedDates: []string{"2026-03-14", "2026-03-16"},
		Reason:        "check-up",
	})

	_, err = env.svc.Cancel(ctx, actor, first.ID, leave.CancelRequest{Reason: "plans changed"})
	require.NoError(t, err)
	env.submit(t, actor, rangeRequest(leave.TypeSick, "2026-03-10", "2026-03-10"))

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, mine, 4)
}

func TestIntake_NegotiationResolvesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")
	req := rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11")

	declined, err := env.svc.Submit(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, declined.Negotiation)
	require.NoError(t, env.svc.DeclineNegotiation(ctx, actor, declined.Negotiation.Token))

	_, err = env.svc.AcceptUnpaid(ctx, actor, declined.Negotiation.Token)
	assert.ErrorIs(t, err, leave.ErrInvalidToken, "a declined offer cannot be accepted")
	assert.ErrorIs(t, env.svc.DeclineNegotiation(ctx, actor, declined.Negotiation.Token), leave.ErrInvalidToken)

	offered, err := env.svc.Submit(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, offered.Negotiation)

	accepted, err := env.svc.AcceptUnpaid(ctx, actor, offered.Negotiation.Token)
	require.NoError(t, err)
	require.NotNil(t, accepted.Request)

	env.clock.Advance(2 * time.Minute)
	_, err = env.svc.AcceptUnpaid(ctx, actor, offered.Negotiation.Token)
	assert.ErrorIs(t, err, leave.ErrInvalidToken, "an accepted offer files one request")
	assert.ErrorIs(t, env.svc.DeclineNegotiation(ctx, actor, offered.Negotiation.Token), leave.ErrInvalidToken)

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestIntake_ConcurrentAccepts_FileOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")

	res, err := env.svc.Submit(ctx, actor, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11"))
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)

	errs := runConcurrently(2, func() error {
		_, err := env.svc.AcceptUnpaid(context.Background(), actor, res.Negotiation.Token)
		return err
	})

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, leave.ErrInvalidToken):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
}

func TestIntake_FailedAcceptKeepsOfferOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditSick, "5"))

	sick := env.submit(t, actor, rangeRequest(leave.TypeSick, "2026-03-10", "2026-03-10"))

	res, err := env.svc.Submit(ctx, actor, rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11"))
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)

	_, err = env.svc.AcceptUnpaid(ctx, actor, res.Negotiation.Token)
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)

	_, err = env.svc.Cancel(ctx, actor, sick.ID, leave.CancelRequest{Reason: "recovered"})
	require.NoError(t, err)

	accepted, err := env.svc.AcceptUnpaid(ctx, actor, res.Negotiation.Token)
	require.NoError(t, err)
	require.NotNil(t, accepted.Request)
	assert.Equal(t, leave.TypeUnpaid, accepted.Request.LeaveType)
}

func TestIntake_UnpaidRefileHoldsRequestedTypeMarker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana")
	req := rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-11")

	res, err := env.svc.Submit(ctx, actor, req)
	require.NoError(t, err)
	require.NotNil(t, res.Negotiation)
	_, err = env.svc.AcceptUnpaid(ctx, actor, res.Negotiation.Token)
	require.NoError(t, err)

	_, err = env.svc.ledger.Grant(ctx, leave.GrantInput{
		EmployeeID:    actor.EmployeeID,
		CreditType:    employee.CreditVacation,
		Amount:        dec("5"),
		EffectiveDate: testNow,
		Source:        leave.SourceAdjustment,
		Notes:         "restored",
	})
	require.NoError(t, err)

	// The refile is keyed on vacation, so the same vacation request inside
	// the window is a duplicate rather than a second filing.
	_, err = env.svc.Submit(ctx, actor, req)
	assert.ErrorIs(t, err, leave.ErrConcurrencyConflict)
}

func TestIntake_FailedSubmissionReleasesMarker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditCTO, "8"))
	req := rangeRequest(leave.TypeCTO, "2026-03-09", "2026-03-09")

	// The first balance write fails as if a concurrent deduction won the row.
	env.repos.Credits = &faultyCredits{CreditRepository: env.repos.Credits, failApply: 1}
	env.rebuild()

	_, err := env.svc.Submit(ctx, actor, req)
	require.ErrorIs(t, err, leave.ErrInsufficientBalance)

	mine, err := env.svc.ListMyRequests(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, mine, "the request row rolls back with the deduction")

	res, err := env.svc.Submit(ctx, actor, req)
	require.NoError(t, err)
	assert.NotNil(t, res.Request)
}

func TestIntake_ConcurrentIdenticalSubmissions(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "10"))
	req := rangeRequest(leave.TypeVacation, "2026-03-09", "2026-03-13")

	errs := runConcurrently(2, func() error {
		_, err := env.svc.Submit(context.Background(), actor, req)
		return err
	})

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, leave.ErrConcurrencyConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestIntake_ConcurrentCTOSubmissions_DeductOnce(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditCTO, "8"))
	dates := []string{"2026-03-09", "2026-03-10"}

	var mu sync.Mutex
	next := 0
	errs := runConcurrently(2, func() error {
		mu.Lock()
		d := dates[next]
		next++
		mu.Unlock()
		_, err := env.svc.Submit(context.Background(), actor, rangeRequest(leave.TypeCTO, d, d))
		return err
	})

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, leave.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.True(t, env.balance(t, actor.EmployeeID, employee.CreditCTO).IsZero())
	assert.Len(t, env.history(t, actor.EmployeeID), 1)
}

func runConcurrently(n int, fn func() error) []error {
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}
