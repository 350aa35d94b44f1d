package adminlog

import (
	"time"

	"github.com/google/uuid"
)

// Action names an operator command recorded in the audit trail
type Action string

const (
	ActionSetRating        Action = "set_rating"
	ActionReactivate       Action = "reactivate"
	ActionClearIdempotency Action = "clear_idempotency"
)

// Entry is one audited operator action. TargetUserID is nil for actions that touch no single user.
type Entry struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Actor        string     `json:"actor" gorm:"not null"`
	Action       Action     `json:"action" gorm:"type:text;not null"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty" gorm:"type:uuid"`
	Details      string     `json:"details"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName pins the gorm table name.
func (Entry) TableName() string { return "admin_logs" }

func NewEntry(actor string, action Action, target *uuid.UUID, details string, now time.Time) *Entry {
	return &Entry{
		ID:           uuid.New(),
		Actor:        actor,
		Action:       action,
		TargetUserID: target,
		Details:      details,
		CreatedAt:    now,
	}
}
