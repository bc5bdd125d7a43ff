package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/auth"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/middleware"
	"github.com/ejohntemperatura/Thesis-sub000/internal/handler/http/response"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	ListTypes(w http.ResponseWriter, r *http.Request)

	Submit(w http.ResponseWriter, r *http.Request)
	SubmitLate(w http.ResponseWriter, r *http.Request)
	AcceptUnpaid(w http.ResponseWriter, r *http.Request)
	DeclineNegotiation(w http.ResponseWriter, r *http.Request)

	GetMyRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	ListAwaiting(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)

	GetMyCredits(w http.ResponseWriter, r *http.Request)
	GetCreditHistory(w http.ResponseWriter, r *http.Request)
	AdjustCredits(w http.ResponseWriter, r *http.Request)
	RunAccrual(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
	loc          *time.Location
	now          func() time.Time
}

// NewLeaveHandler builds the leave endpoints. loc decides which month an
// accrual run without an explicit period credits.
func NewLeaveHandler(leaveService leave.LeaveService, loc *time.Location) LeaveHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveHandlerImpl{leaveService: leaveService, loc: loc, now: time.Now}
}

// actor returns the caller identity or writes 401.
func actor(w http.ResponseWriter, r *http.Request) (leave.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
	}
	return a, ok
}

// decode reads a JSON body into dst or writes 400.
func decode(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// ListTypes implements LeaveHandler.
func (l *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	types, err := l.leaveService.AvailableLeaveTypes(r.Context(), a)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, types)
}

// Submit implements LeaveHandler.
func (l *LeaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	l.submit(w, r, "Submit", l.leaveService.Submit)
}

// SubmitLate implements LeaveHandler.
func (l *LeaveHandlerImpl) SubmitLate(w http.ResponseWriter, r *http.Request) {
	l.submit(w, r, "SubmitLate", l.leaveService.SubmitLate)
}

type submitFunc func(ctx context.Context, actor leave.Actor, req leave.SubmitRequest) (leave.SubmitResult, error)

func (l *LeaveHandlerImpl) submit(w http.ResponseWriter, r *http.Request, op string, fn submitFunc) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.SubmitRequest
	if !decode(w, r, op, &req) {
		return
	}

	result, err := fn(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeSubmitResult(w, result)
}

// writeSubmitResult answers 201 for a filed request and 200 with the unpaid
// offer when credits fell short.
func writeSubmitResult(w http.ResponseWriter, result leave.SubmitResult) {
	if result.Negotiation != nil {
		response.SuccessWithMessage(w, result.Negotiation.Message, result)
		return
	}
	response.Created(w, "Leave request submitted successfully", result)
}

// AcceptUnpaid implements LeaveHandler.
func (l *LeaveHandlerImpl) AcceptUnpaid(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.NegotiationRequest
	if !decode(w, r, "AcceptUnpaid", &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.AcceptUnpaid(r.Context(), a, req.Token)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	writeSubmitResult(w, result)
}

// DeclineNegotiation implements LeaveHandler.
func (l *LeaveHandlerImpl) DeclineNegotiation(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.NegotiationRequest
	if !decode(w, r, "DeclineNegotiation", &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := l.leaveService.DeclineNegotiation(r.Context(), a, req.Token); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request withdrawn", nil)
}

// GetMyRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	requests, err := l.leaveService.ListMyRequests(r.Context(), a)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid leave request ID", nil)
		return
	}

	req, err := l.leaveService.GetRequest(r.Context(), a, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, req)
}

// Cancel implements LeaveHandler.
func (l *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid leave request ID", nil)
		return
	}

	// the reason is optional, so an empty body is fine
	var req leave.CancelRequest
	if r.ContentLength != 0 && !decode(w, r, "Cancel", &req) {
		return
	}

	cancelled, err := l.leaveService.Cancel(r.Context(), a, id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request cancelled", cancelled)
}

// ListAwaiting implements LeaveHandler.
func (l *LeaveHandlerImpl) ListAwaiting(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	stage := leave.Stage(chi.URLParam(r, "stage"))
	if _, ok := leave.TransitionFor(stage); !ok {
		response.BadRequest(w, "Unknown approval stage", nil)
		return
	}

	requests, err := l.leaveService.ListAwaitingStage(r.Context(), a, stage)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, requests)
}

// Decide implements LeaveHandler.
func (l *LeaveHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.DecisionRequest
	if !decode(w, r, "Decide", &req) {
		return
	}
	req.RequestID = chi.URLParam(r, "id")
	if !validator.IsValidUUID(req.RequestID) {
		response.BadRequest(w, "Invalid leave request ID", nil)
		return
	}

	decided, err := l.leaveService.Decide(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	msg := "Leave request approved"
	if req.Decision == leave.DecisionReject {
		msg = "Leave request rejected"
	}
	response.SuccessWithMessage(w, msg, decided)
}

// GetMyCredits implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyCredits(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	balances, err := l.leaveService.Balances(r.Context(), a)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, balances)
}

// GetCreditHistory implements LeaveHandler.
func (l *LeaveHandlerImpl) GetCreditHistory(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "me" {
		employeeID = a.EmployeeID
	}
	if !validator.IsValidUUID(employeeID) {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}

	history, err := l.leaveService.CreditHistory(r.Context(), a, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, history)
}

// AdjustCredits implements LeaveHandler.
func (l *LeaveHandlerImpl) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.AdjustCreditsRequest
	if !decode(w, r, "AdjustCredits", &req) {
		return
	}

	entry, err := l.leaveService.AdjustCredits(r.Context(), a, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave credits adjusted successfully", entry)
}

// RunAccrual implements LeaveHandler.
func (l *LeaveHandlerImpl) RunAccrual(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}

	var req leave.RunAccrualRequest
	if r.ContentLength != 0 && !decode(w, r, "RunAccrual", &req) {
		return
	}

	period := l.now().In(l.loc)
	if req.Period != "" {
		month, ok := validator.IsValidMonth(req.Period)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "period", Message: "period must use YYYY-MM format"}})
			return
		}
		period = month
	}

	report, err := l.leaveService.RunAccrual(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, report)
}
