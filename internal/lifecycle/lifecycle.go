// Package lifecycle is the invoice status state machine together with the
// edit and approval policy derived from it.
package lifecycle

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusScheduled Status = "SCHEDULED"
	StatusPaid      Status = "PAID"
	StatusRejected  Status = "REJECTED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusDraft, StatusSubmitted, StatusApproved, StatusScheduled, StatusPaid, StatusRejected,
}

type Action string

const (
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionSchedule Action = "SCHEDULE"
	ActionPay      Action = "PAY"
	ActionDelete   Action = "DELETE"
)

// Roles known to the policy.
const (
	RoleAdmin          = "ADMIN"
	RoleFinanceManager = "FINANCE_MANAGER"
	RoleAPStaff        = "AP_STAFF"
)

// transitions maps status -> action -> next status. DELETE is available but
// has no successor: the record goes away.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
		ActionDelete: "",
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionSchedule: StatusScheduled,
	},
	StatusScheduled: {
		ActionPay: StatusPaid,
	},
	StatusPaid:     {},
	StatusRejected: {},
}

// actionOrder keeps AvailableActions output stable.
var actionOrder = []Action{ActionSubmit, ActionDelete, ActionApprove, ActionReject, ActionSchedule, ActionPay}

// TransitionError reports an action that is not legal from the current status.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an invoice in status %s", strings.ToLower(string(e.Action)), e.From)
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal is true for statuses with no outgoing actions.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range actionOrder {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// AvailableActions returns the actions offered for a status.
func AvailableActions(s Status) []Action {
	allowed := transitions[s]
	actions := make([]Action, 0, len(allowed))
	for _, a := range actionOrder {
		if _, ok := allowed[a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Allows reports whether action is available from s.
func Allows(s Status, action Action) bool {
	_, ok := transitions[s][action]
	return ok
}

// Transition returns the status reached by applying action to s. DELETE
// yields the empty status.
func Transition(s Status, action Action) (Status, error) {
	next, ok := transitions[s][action]
	if !ok {
		return "", &TransitionError{From: s, Action: action}
	}
	return next, nil
}

// CanEdit is false once an invoice has been approved.
func CanEdit(s Status) bool {
	switch s {
	case StatusApproved, StatusScheduled, StatusPaid:
		return false
	}
	return true
}

// Policy holds the role-dependent part of the rules.
type Policy struct {
	ApproverRole string
}

func DefaultPolicy() Policy {
	return Policy{ApproverRole: RoleFinanceManager}
}

// CanApprove is true for a SUBMITTED invoice and the approver role.
func (p Policy) CanApprove(s Status, role string) bool {
	return s == StatusSubmitted && p.IsApprover(role)
}

func (p Policy) IsApprover(role string) bool {
	return role != "" && strings.EqualFold(role, p.ApproverRole)
}

// RequiresApprover reports whether action may only be taken by the approver.
func (p Policy) RequiresApprover(action Action) bool {
	return action == ActionApprove || action == ActionReject
}
