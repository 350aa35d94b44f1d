// Package swap models swap requests and their lifecycle.
package swap

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a swap request
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// CanTransition reports whether from -> to is a legal transition.
// Only pending requests move, and only to a terminal state.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// Direction filters a user's requests by the side they are on.
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ParseDirection maps a query value to a Direction, defaulting to DirectionAll.
func ParseDirection(v string) (Direction, bool) {
	switch Direction(v) {
	case "", DirectionAll:
		return DirectionAll, true
	case DirectionSent:
		return DirectionSent, true
	case DirectionReceived:
		return DirectionReceived, true
	default:
		return "", false
	}
}

// Request represents a proposal from one user to another to exchange skills
type Request struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RequesterID  uuid.UUID `json:"requester_id" gorm:"type:uuid;not null;index"`
	ReceiverID   uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;index"`
	OfferedSkill string    `json:"offered_skill" gorm:"not null"`
	WantedSkill  string    `json:"wanted_skill" gorm:"not null"`
	Message      string    `json:"message"`
	Status       Status    `json:"status" gorm:"type:text;not null;default:pending"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName pins the gorm table name.
func (Request) TableName() string { return "swap_requests" }

// CreateRequestInput represents the payload to open a swap request
type CreateRequestInput struct {
	ReceiverID   uuid.UUID `json:"receiver_id" validate:"required"`
	OfferedSkill string    `json:"offered_skill" validate:"required,max=64"`
	WantedSkill  string    `json:"wanted_skill" validate:"required,max=64"`
	Message      string    `json:"message" validate:"max=1000"`
}

// NewRequest creates a pending request stamped with now.
func NewRequest(requesterID uuid.UUID, in *CreateRequestInput, now time.Time) *Request {
	return &Request{
		ID:           uuid.New(),
		RequesterID:  requesterID,
		ReceiverID:   in.ReceiverID,
		OfferedSkill: in.OfferedSkill,
		WantedSkill:  in.WantedSkill,
		Message:      in.Message,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Involves reports whether userID is the requester or the receiver.
func (r *Request) Involves(userID uuid.UUID) bool {
	return r.RequesterID == userID || r.ReceiverID == userID
}

// Newer orders requests by creation time descending, then id descending.
func Newer(a, b *Request) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
