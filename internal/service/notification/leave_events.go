package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/email"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/i18n"
)

const dateLayout = "Jan 2, 2006"

// LeaveEventDispatcher turns leave workflow events into in-app notifications
// and emails for the requester and the next approvers.
type LeaveEventDispatcher struct {
	notifications notification.Service
	employees     employee.EmployeeRepository
	policy        *leave.CreditPolicy
	mailer        email.EmailService
	publicURL     string

	mailWG sync.WaitGroup
}

func NewLeaveEventDispatcher(
	notifications notification.Service,
	employees employee.EmployeeRepository,
	policy *leave.CreditPolicy,
	mailer email.EmailService,
	publicURL string,
) *LeaveEventDispatcher {
	return &LeaveEventDispatcher{
		notifications: notifications,
		employees:     employees,
		policy:        policy,
		mailer:        mailer,
		publicURL:     publicURL,
	}
}

// message is one rendered notification addressed to one employee.
type message struct {
	recipient employee.Employee
	kind      notification.NotificationType
	title     string
	body      string
	detail    string
}

// Publish implements leave.EventPublisher.
func (d *LeaveEventDispatcher) Publish(ctx context.Context, event leave.Event) error {
	messages, err := d.render(ctx, event)
	if err != nil {
		return err
	}

	var errs []error
	for _, m := range messages {
		if err := d.deliver(ctx, event, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until queued emails have been handed to the mailer.
func (d *LeaveEventDispatcher) Wait() {
	d.mailWG.Wait()
}

func (d *LeaveEventDispatcher) render(ctx context.Context, event leave.Event) ([]message, error) {
	if event.Kind == leave.EventExpiryAlert {
		emp, err := d.employees.GetByID(ctx, event.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load employee %s: %w", event.EmployeeID, err)
		}
		data := map[string]any{"Amount": event.Amount.String()}
		return []message{{
			recipient: emp,
			kind:      notification.TypeCreditExpiry,
			title:     i18n.T(ctx, "leave.expiry_alert.title"),
			body:      i18n.T(ctx, "leave.expiry_alert.message", data),
		}}, nil
	}

	if event.Request == nil {
		return nil, fmt.Errorf("leave event %s carries no request", event.Kind)
	}
	r := event.Request
	requester, err := d.employees.GetByID(ctx, r.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester %s: %w", r.EmployeeID, err)
	}
	data := d.templateData(r, requester)

	switch event.Kind {
	case leave.EventSubmitted:
		first := leave.Stages()[0]
		data["Stage"] = string(first.Stage)
		return d.toApprovers(ctx, first, requester, notification.TypeLeaveRequest,
			i18n.T(ctx, "leave.submitted.title"), i18n.T(ctx, "leave.submitted.message", data), lateDetail(ctx, r))

	case leave.EventStageApproved:
		data["Stage"] = string(event.Stage)
		out := []message{{
			recipient: requester,
			kind:      notification.TypeLeaveStageUpdate,
			title:     i18n.T(ctx, "leave.stage_approved.title"),
			body:      i18n.T(ctx, "leave.stage_approved.message", data),
		}}
		next, ok := leave.CurrentStage(r.Status)
		if !ok {
			return out, nil
		}
		data["Stage"] = string(next.Stage)
		approvers, err := d.toApprovers(ctx, next, requester, notification.TypeLeaveAwaiting,
			i18n.T(ctx, "leave.awaiting.title"), i18n.T(ctx, "leave.awaiting.message", data), lateDetail(ctx, r))
		return append(out, approvers...), err

	case leave.EventFinalApproved:
		return []message{{
			recipient: requester,
			kind:      notification.TypeLeaveApproved,
			title:     i18n.T(ctx, "leave.final_approved.title"),
			body:      i18n.T(ctx, "leave.final_approved.message", data),
		}}, nil

	case leave.EventRejected:
		data["Stage"] = string(event.Stage)
		data["Notes"] = event.Notes
		return []message{{
			recipient: requester,
			kind:      notification.TypeLeaveRejected,
			title:     i18n.T(ctx, "leave.rejected.title"),
			body:      i18n.T(ctx, "leave.rejected.message", data),
		}}, nil

	case leave.EventCancelled:
		// a cancelled request was still waiting on the first stage
		first := leave.Stages()[0]
		return d.toApprovers(ctx, first, requester, notification.TypeLeaveCancelled,
			i18n.T(ctx, "leave.cancelled.title"), i18n.T(ctx, "leave.cancelled.message", data), event.Notes)
	}

	return nil, fmt.Errorf("unknown leave event kind %q", event.Kind)
}

// lateDetail is the justification line every approver of a late request sees.
func lateDetail(ctx context.Context, r *leave.LeaveRequest) string {
	if !r.IsLate || r.LateJustification == nil {
		return ""
	}
	return i18n.T(ctx, "leave.submitted.late", map[string]any{"Justification": *r.LateJustification})
}

func (d *LeaveEventDispatcher) toApprovers(ctx context.Context, stage leave.Transition, requester employee.Employee, kind notification.NotificationType, title, body, detail string) ([]message, error) {
	var dept *string
	if stage.Role == employee.RoleDeptHead {
		dept = &requester.DepartmentID
	}
	approvers, err := d.employees.ListByRole(ctx, stage.Role, dept)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s approvers: %w", stage.Role, err)
	}

	out := make([]message, 0, len(approvers))
	for _, a := range approvers {
		if a.ID == requester.ID {
			continue
		}
		out = append(out, message{recipient: a, kind: kind, title: title, body: body, detail: detail})
	}
	if len(out) == 0 {
		slog.Warn("no approvers to notify", "stage", stage.Stage, "department_id", requester.DepartmentID)
	}
	return out, nil
}

func (d *LeaveEventDispatcher) templateData(r *leave.LeaveRequest, requester employee.Employee) map[string]any {
	typeName := string(r.LeaveType)
	if entry, err := d.policy.Resolve(r.LeaveType); err == nil {
		typeName = entry.DisplayName
	}
	return map[string]any{
		"Employee":  requester.FullName,
		"LeaveType": typeName,
		"Days":      r.ApprovedDays,
		"StartDate": r.StartDate.Format(dateLayout),
		"EndDate":   r.EndDate.Format(dateLayout),
	}
}

func (d *LeaveEventDispatcher) deliver(ctx context.Context, event leave.Event, m message) error {
	payload := map[string]interface{}{
		"event":       string(event.Kind),
		"employee_id": event.EmployeeID,
	}
	if event.Request != nil {
		payload[notification.DataLeaveRequestID] = event.Request.ID
		payload["status"] = string(event.Request.Status)
	}
	if m.detail != "" {
		payload["detail"] = m.detail
	}

	var err error
	if m.recipient.UserID != nil {
		var sender *string
		if event.ActorID != "" {
			sender = &event.ActorID
		}
		err = d.notifications.QueueNotification(ctx, notification.CreateNotificationRequest{
			RecipientID: *m.recipient.UserID,
			SenderID:    sender,
			Type:        m.kind,
			Title:       m.title,
			Message:     m.body,
			Data:        payload,
		})
		if err != nil {
			err = fmt.Errorf("failed to queue notification for %s: %w", m.recipient.ID, err)
		}
	}

	if d.mailer == nil || m.recipient.Email == "" {
		return err
	}
	if m.recipient.UserID != nil && !d.notifications.EmailEnabled(ctx, *m.recipient.UserID, m.kind) {
		return err
	}

	update := email.LeaveUpdate{
		Locale:        i18n.LocaleFromContext(ctx),
		RecipientName: m.recipient.FullName,
		Title:         m.title,
		Message:       m.body,
		Detail:        m.detail,
	}
	if d.publicURL != "" && event.Request != nil {
		update.Link = d.publicURL + "/leave/requests/" + event.Request.ID
	}

	d.mailWG.Add(1)
	go func(to string) {
		defer d.mailWG.Done()
		if err := d.mailer.SendLeaveUpdate(to, update); err != nil {
			slog.Error("leave email failed", "to", to, "event", event.Kind, "error", err)
		}
	}(m.recipient.Email)

	return err
}
