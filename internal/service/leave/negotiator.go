package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

// negotiationPayload is what the decision token carries back to intake.
type negotiationPayload struct {
	Request leave.SubmitRequest `json:"request"`
	Late    bool                `json:"late"`
}

// InsufficientCreditNegotiator turns a shortfall on a fallback-eligible type
// into an offer to refile the same request as unpaid leave.
// Each offer resolves once: accepting or declining consumes its token id in
// the marker store until the token would have expired anyway.
type InsufficientCreditNegotiator struct {
	signer  leave.NegotiationSigner
	markers leave.SubmissionMarkerRepository
	ttl     time.Duration
	now     func() time.Time
}

// redemption is a verified offer whose token id is now held.
type redemption struct {
	payload negotiationPayload
	key     string
}

func NewInsufficientCreditNegotiator(signer leave.NegotiationSigner, markers leave.SubmissionMarkerRepository, ttl time.Duration) *InsufficientCreditNegotiator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &InsufficientCreditNegotiator{signer: signer, markers: markers, ttl: ttl, now: time.Now}
}

// Offer builds the negotiation prompt. Types without unpaid fallback never get
// one.
func (n *InsufficientCreditNegotiator) Offer(emp employee.Employee, req leave.SubmitRequest, late bool, entry leave.PolicyEntry, s leave.Sufficiency) (*leave.NegotiationPrompt, error) {
	if !entry.AllowsUnpaidFallback {
		return nil, fmt.Errorf("%w: %s has no unpaid fallback", leave.ErrPolicyViolation, entry.DisplayName)
	}

	payload, err := json.Marshal(negotiationPayload{Request: req, Late: late})
	if err != nil {
		return nil, fmt.Errorf("failed to encode negotiation payload: %w", err)
	}
	token, expiresAt, err := n.signer.SignNegotiation(emp.ID, payload, n.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign negotiation token: %w", err)
	}

	return &leave.NegotiationPrompt{
		Payload:   req,
		LeaveType: entry.Type,
		Required:  s.Required,
		Available: s.Available,
		Message:   s.Message + " You may file this request as leave without pay instead.",
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Redeem verifies a decision token for actor and consumes it. A token that was
// already accepted or declined is rejected with leave.ErrInvalidToken.
func (n *InsufficientCreditNegotiator) Redeem(ctx context.Context, actor leave.Actor, token string) (redemption, error) {
	claims, err := n.signer.VerifyNegotiation(token)
	if err != nil {
		return redemption{}, fmt.Errorf("%w: %v", leave.ErrInvalidToken, err)
	}
	if claims.EmployeeID != actor.EmployeeID {
		return redemption{}, leave.ErrForbidden
	}

	var p negotiationPayload
	if err := json.Unmarshal(claims.Payload, &p); err != nil {
		return redemption{}, fmt.Errorf("%w: malformed payload", leave.ErrInvalidToken)
	}

	key := "negotiation:" + claims.TokenID
	holdUntil := n.now().Add(n.ttl)
	if claims.ExpiresAt.After(holdUntil) {
		holdUntil = claims.ExpiresAt
	}
	claimed, err := n.markers.Claim(ctx, key, holdUntil)
	if err != nil {
		return redemption{}, fmt.Errorf("failed to claim negotiation token: %w", err)
	}
	if !claimed {
		return redemption{}, fmt.Errorf("%w: offer was already resolved", leave.ErrInvalidToken)
	}
	return redemption{payload: p, key: key}, nil
}

// Restore hands a consumed token back after the accept it was redeemed for
// failed, so the employee can retry.
func (n *InsufficientCreditNegotiator) Restore(ctx context.Context, r redemption) {
	if err := n.markers.Release(context.WithoutCancel(ctx), r.key); err != nil {
		slog.Error("Failed to restore negotiation token", "key", r.key, "error", err)
	}
}
