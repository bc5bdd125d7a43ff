package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	id, employee_id, leave_type::text, original_leave_type::text, start_date, end_date, selected_dates,
	days_requested, approved_days, status, is_late, late_justification, document_path, reason,
	credits_deducted, deducted_at, credits_refunded, refunded_at, submitted_by, created_at, updated_at`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	var originalType *string
	if req.OriginalLeaveType != nil {
		t := string(*req.OriginalLeaveType)
		originalType = &t
	}

	query := `
		INSERT INTO leave_requests (
			employee_id, leave_type, original_leave_type, start_date, end_date, selected_dates,
			days_requested, approved_days, status, is_late, late_justification, document_path, reason,
			credits_deducted, deducted_at, submitted_by
		)
		VALUES ($1, $2::leave_type, $3::leave_type, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		req.EmployeeID,
		string(req.LeaveType),
		originalType,
		req.StartDate,
		req.EndDate,
		selectedDatesArg(req.SelectedDates),
		req.DaysRequested,
		req.ApprovedDays,
		string(req.Status),
		req.IsLate,
		req.LateJustification,
		req.DocumentPath,
		req.Reason,
		req.CreditsDeducted,
		req.DeductedAt,
		req.SubmittedBy,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	req.Approvals = nil
	return req, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id)
}

// GetByIDForUpdate implements leave.LeaveRequestRepository. NOWAIT turns a
// concurrent decision on the same request into a lock error instead of a wait.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE NOWAIT`, id)
}

func (r *leaveRequestRepositoryImpl) get(ctx context.Context, query, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request %s: %w", id, mapTxError(err))
	}

	approvals, err := r.approvalsFor(ctx, []string{req.ID})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	req.Approvals = approvals[req.ID]
	return req, nil
}

// UpdateLifecycle implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateLifecycle(ctx context.Context, req leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1, approved_days = $2, credits_deducted = $3, deducted_at = $4,
			credits_refunded = $5, refunded_at = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := q.Exec(ctx, query,
		string(req.Status),
		req.ApprovedDays,
		req.CreditsDeducted,
		req.DeductedAt,
		req.CreditsRefunded,
		req.RefundedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request %s: %w", req.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// AppendApproval implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) AppendApproval(ctx context.Context, a leave.Approval) (leave.Approval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_approvals (request_id, stage, approver_id, decision, approved_days, notes, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		a.RequestID,
		string(a.Stage),
		a.ApproverID,
		string(a.Decision),
		a.ApprovedDays,
		a.Notes,
		a.DecidedAt,
	).Scan(&a.ID)
	if err != nil {
		return leave.Approval{}, fmt.Errorf("failed to insert approval: %w", err)
	}
	return a, nil
}

// ListByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, employeeID)
}

// ListByStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByStatus(ctx context.Context, status leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, string(status))
}

func (r *leaveRequestRepositoryImpl) list(ctx context.Context, query string, arg string) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var (
		requests []leave.LeaveRequest
		ids      []string
	)
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
		ids = append(ids, req.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	if len(ids) == 0 {
		return requests, nil
	}

	approvals, err := r.approvalsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		requests[i].Approvals = approvals[requests[i].ID]
	}
	return requests, nil
}

func (r *leaveRequestRepositoryImpl) approvalsFor(ctx context.Context, ids []string) (map[string][]leave.Approval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, stage, approver_id, decision, approved_days, notes, decided_at
		FROM leave_approvals
		WHERE request_id = ANY($1::uuid[])
		ORDER BY decided_at, id
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]leave.Approval, len(ids))
	for rows.Next() {
		var a leave.Approval
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Stage, &a.ApproverID, &a.Decision, &a.ApprovedDays, &a.Notes, &a.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		out[a.RequestID] = append(out[a.RequestID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approvals: %w", err)
	}
	return out, nil
}

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		req          leave.LeaveRequest
		originalType *string
	)
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.LeaveType, &originalType, &req.StartDate, &req.EndDate, &req.SelectedDates,
		&req.DaysRequested, &req.ApprovedDays, &req.Status, &req.IsLate, &req.LateJustification, &req.DocumentPath, &req.Reason,
		&req.CreditsDeducted, &req.DeductedAt, &req.CreditsRefunded, &req.RefundedAt, &req.SubmittedBy, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if originalType != nil {
		t := leave.LeaveType(*originalType)
		req.OriginalLeaveType = &t
	}
	return req, nil
}

// selectedDatesArg stores an empty selection as NULL.
func selectedDatesArg(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	return dates
}
