package model

import "context"

// Outcome is the result of the primary grant/revoke action.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// ActionResult separates the role change from the notice sent afterwards.
// NoticeErr never changes Outcome.
type ActionResult struct {
	Outcome   Outcome
	Err       error
	NoticeErr error
}

// RoleActuator grants and revokes the voter role in the managed guild.
// Both operations are idempotent.
type RoleActuator interface {
	Grant(ctx context.Context, userID string) ActionResult
	Revoke(ctx context.Context, userID string) ActionResult
}
