package idempotency

import (
	"time"

	"github.com/google/uuid"
)

// Key records the outcome of a request submitted with an Idempotency-Key header
type Key struct {
	Key          string    `json:"key"`
	PrincipalID  uuid.UUID `json:"principal_id"`
	RequestHash  string    `json:"request_hash"`
	ResponseData string    `json:"response_data"`
	StatusCode   int       `json:"status_code"`
	ProcessedAt  time.Time `json:"processed_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the key may be reused.
func (k *Key) IsExpired() bool {
	return time.Now().After(k.ExpiresAt)
}
