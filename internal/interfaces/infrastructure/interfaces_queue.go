package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IndexRepairJob asks a worker to re-derive one user's skill index entries from the directory.
type IndexRepairJob struct {
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  int       `json:"attempts"`
}

// IndexRepairer fixes the index entries of a single user.
type IndexRepairer interface {
	RepairUserIndex(ctx context.Context, userID uuid.UUID) error
}

type QueueService interface {
	EnqueueIndexRepair(ctx context.Context, job IndexRepairJob) error
	// DequeueIndexRepair returns nil, nil when nothing arrived before ctx or the poll timeout expired.
	DequeueIndexRepair(ctx context.Context) (*IndexRepairJob, error)
	SetRepairer(repairer IndexRepairer)
	StartWorkers()
	StopWorkers()
}
