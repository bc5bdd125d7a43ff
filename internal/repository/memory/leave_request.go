package memory

import (
	"context"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

type leaveRequestRepository struct {
	store *Store
}

func NewLeaveRequestRepository(s *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: s}
}

func (r *leaveRequestRepository) Create(_ context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if req.ID == "" {
		req.ID = newID()
	}
	now := r.store.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Approvals = nil
	r.store.state.requests[req.ID] = cloneRequest(req)
	return cloneRequest(req), nil
}

func (r *leaveRequestRepository) GetByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.getLocked(id)
}

// Transactions are already serialized by the store.
func (r *leaveRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *leaveRequestRepository) getLocked(id string) (leave.LeaveRequest, error) {
	req, ok := r.store.state.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	out := cloneRequest(req)
	out.Approvals = append([]leave.Approval(nil), r.store.state.approvals[id]...)
	return out, nil
}

func (r *leaveRequestRepository) UpdateLifecycle(_ context.Context, req leave.LeaveRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cur, ok := r.store.state.requests[req.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	cur.Status = req.Status
	cur.ApprovedDays = req.ApprovedDays
	cur.CreditsDeducted = req.CreditsDeducted
	cur.DeductedAt = req.DeductedAt
	cur.CreditsRefunded = req.CreditsRefunded
	cur.RefundedAt = req.RefundedAt
	cur.UpdatedAt = r.store.now()
	r.store.state.requests[req.ID] = cur
	return nil
}

func (r *leaveRequestRepository) AppendApproval(_ context.Context, approval leave.Approval) (leave.Approval, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.state.requests[approval.RequestID]; !ok {
		return leave.Approval{}, leave.ErrLeaveRequestNotFound
	}
	if approval.ID == "" {
		approval.ID = newID()
	}
	if approval.DecidedAt.IsZero() {
		approval.DecidedAt = r.store.now()
	}
	r.store.state.approvals[approval.RequestID] = append(r.store.state.approvals[approval.RequestID], approval)
	return approval, nil
}

func (r *leaveRequestRepository) ListByEmployee(_ context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	return r.list(func(req leave.LeaveRequest) bool { return req.EmployeeID == employeeID }), nil
}

func (r *leaveRequestRepository) ListByStatus(_ context.Context, status leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	return r.list(func(req leave.LeaveRequest) bool { return req.Status == status }), nil
}

func (r *leaveRequestRepository) list(keep func(leave.LeaveRequest) bool) []leave.LeaveRequest {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []leave.LeaveRequest
	for id, req := range r.store.state.requests {
		if !keep(req) {
			continue
		}
		full, _ := r.getLocked(id)
		out = append(out, full)
	}
	sortRequests(out)
	return out
}
