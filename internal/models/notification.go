package models

import (
	"time"

	"estatehub/marketplace/internal/utils"
)

// ThreadType records the nature of the most recent event on a thread.
type ThreadType string

const (
	ThreadTypeStatus        ThreadType = "status"
	ThreadTypeInterest      ThreadType = "interest"
	ThreadTypeMessage       ThreadType = "message"
	ThreadTypeBookingCancel ThreadType = "booking_cancel"
)

// Valid reports whether t is a known thread type.
func (t ThreadType) Valid() bool {
	switch t {
	case ThreadTypeStatus, ThreadTypeInterest, ThreadTypeMessage, ThreadTypeBookingCancel:
		return true
	}
	return false
}

// Audience values for NotificationView.NotificationFor.
const (
	AudienceUser  = "user"
	AudienceAgent = "agent"
)

// ThreadKey identifies the single thread between a user and an agent about a property.
type ThreadKey struct {
	UserID     utils.SixID
	AgentID    utils.SixID
	PropertyID utils.SixID
}

// ThreadMessage is one entry in a thread's append-only message list.
type ThreadMessage struct {
	Sender    utils.SixID `bson:"sender" json:"sender"`
	Content   string      `bson:"content" json:"content"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

// Notification is the conversation/event thread for one ThreadKey.
// ReadBy and DeletedBy are per-participant sets.
type Notification struct {
	Base       `bson:",inline"`
	UserID     utils.SixID     `bson:"user" json:"user"`
	AgentID    utils.SixID     `bson:"agent" json:"agent"`
	PropertyID utils.SixID     `bson:"property" json:"property"`
	Type       ThreadType      `bson:"type" json:"type"`
	Messages   []ThreadMessage `bson:"messages" json:"messages"`
	ReadBy     []utils.SixID   `bson:"read_by" json:"readBy"`
	DeletedBy  []utils.SixID   `bson:"deleted_by" json:"deletedBy"`
	Timestamps `bson:",inline"`
}

// Key returns the identity triple of the thread.
func (n *Notification) Key() ThreadKey {
	return ThreadKey{UserID: n.UserID, AgentID: n.AgentID, PropertyID: n.PropertyID}
}

// HasParty reports whether userID is the user or the agent of the thread.
func (n *Notification) HasParty(userID utils.SixID) bool {
	return n.UserID == userID || n.AgentID == userID
}

// IsReadBy reports whether userID has seen the thread's current state.
func (n *Notification) IsReadBy(userID utils.SixID) bool {
	return containsID(n.ReadBy, userID)
}

// IsDeletedBy reports whether userID has hidden the thread.
func (n *Notification) IsDeletedBy(userID utils.SixID) bool {
	return containsID(n.DeletedBy, userID)
}

// NotificationView is a thread as seen by one of its parties.
type NotificationView struct {
	Notification
	NotificationFor string `json:"notificationFor"`
	IsRead          bool   `json:"isRead"`
}

// ViewFor annotates the thread for the given caller.
func (n *Notification) ViewFor(callerID utils.SixID) NotificationView {
	audience := AudienceUser
	if n.AgentID == callerID {
		audience = AudienceAgent
	}
	return NotificationView{
		Notification:    *n,
		NotificationFor: audience,
		IsRead:          n.IsReadBy(callerID),
	}
}

func containsID(ids []utils.SixID, id utils.SixID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
