package models

import (
	"estatehub/marketplace/internal/utils"
)

// InterestStatus is the state of a user's claim on a property.
type InterestStatus string

const (
	InterestPending     InterestStatus = "pending"      // user has just shown interest
	InterestUnderReview InterestStatus = "under_review" // agent is evaluating
	InterestNegotiating InterestStatus = "negotiating"  // price or terms under discussion
	InterestApproved    InterestStatus = "approved"
	InterestRejected    InterestStatus = "rejected"
	InterestWithdrawn   InterestStatus = "withdrawn" // user cancelled
	InterestFinalized   InterestStatus = "finalized" // the property is committed to this user
)

var allInterestStatuses = []InterestStatus{
	InterestPending,
	InterestUnderReview,
	InterestNegotiating,
	InterestApproved,
	InterestRejected,
	InterestWithdrawn,
	InterestFinalized,
}

// Valid reports whether s is one of the known statuses.
func (s InterestStatus) Valid() bool {
	for _, known := range allInterestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined from s.
func (s InterestStatus) IsTerminal() bool {
	return s == InterestFinalized || s == InterestWithdrawn
}

// AgentSettable reports whether an agent may move an interest into s.
// pending is only ever the initial state and withdrawn is reserved for the user.
func (s InterestStatus) AgentSettable() bool {
	switch s {
	case InterestUnderReview, InterestNegotiating, InterestApproved, InterestRejected, InterestFinalized:
		return true
	default:
		return false
	}
}

// CanAgentTransition reports whether the agent of record may move an interest from -> to.
func CanAgentTransition(from, to InterestStatus) bool {
	return from.Valid() && !from.IsTerminal() && to.AgentSettable()
}

// CanWithdraw reports whether the interested user may cancel from s.
func CanWithdraw(s InterestStatus) bool {
	return s != InterestFinalized
}

// Interest is one user's claim on one property, managed by the property owner ("agent").
type Interest struct {
	Base           `bson:",inline"`
	UserID         utils.SixID    `bson:"user" json:"user"`
	AgentID        utils.SixID    `bson:"agent" json:"agent"` // property owner when the interest was created
	PropertyID     utils.SixID    `bson:"property" json:"property"`
	Status         InterestStatus `bson:"status" json:"status"`
	IsCancelled    bool           `bson:"is_cancelled" json:"isCancelled"`
	WithdrawReason *string        `bson:"withdraw_reason" json:"withdraw_reason"`
	Timestamps     `bson:",inline"`
}

// Key returns the thread this interest's events are recorded on.
func (i *Interest) Key() ThreadKey {
	return ThreadKey{UserID: i.UserID, AgentID: i.AgentID, PropertyID: i.PropertyID}
}
