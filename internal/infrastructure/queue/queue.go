package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	interfaces "skillswap/internal/interfaces/infrastructure"
	"skillswap/pkg/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultJobTimeout  = 30 * time.Second
	pollTimeout        = 2 * time.Second
)

type Queue struct {
	indexRepairQueue chan interfaces.IndexRepairJob

	workers     int
	maxAttempts int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
	mu          sync.RWMutex

	repairer interfaces.IndexRepairer
}

func NewInMemoryQueue(bufferSize, workers, maxAttempts int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Queue{
		indexRepairQueue: make(chan interfaces.IndexRepairJob, bufferSize),
		workers:          workers,
		maxAttempts:      maxAttempts,
		ctx:              ctx,
		cancel:           cancel,
	}
}

func (q *Queue) SetRepairer(repairer interfaces.IndexRepairer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repairer = repairer
}

func (q *Queue) StartWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}

	if q.repairer == nil {
		logger.Warn("Index repairer not set, workers cannot process jobs")
		return
	}

	logger.Info("Starting %d index repair workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.indexRepairWorker(i)
	}

	q.started = true
}

func (q *Queue) StopWorkers() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return
	}

	logger.Info("Stopping index repair workers...")
	q.cancel()
	q.wg.Wait()
	q.started = false
	logger.Info("Index repair workers stopped")
}

func (q *Queue) EnqueueIndexRepair(ctx context.Context, job interfaces.IndexRepairJob) error {
	select {
	case q.indexRepairQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("index repair queue is full")
	}
}

func (q *Queue) DequeueIndexRepair(ctx context.Context) (*interfaces.IndexRepairJob, error) {
	select {
	case job := <-q.indexRepairQueue:
		return &job, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, ctx.Err()
	}
}

func (q *Queue) indexRepairWorker(workerID int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		default:
			ctx, cancel := context.WithTimeout(q.ctx, pollTimeout)
			job, err := q.DequeueIndexRepair(ctx)
			cancel()

			if err != nil {
				if q.ctx.Err() != nil {
					return
				}
				logger.Error("Index repair worker %d error: %v", workerID, err)
				continue
			}
			if job != nil {
				processIndexRepair(q, q.currentRepairer(), workerID, job, q.maxAttempts)
			}
		}
	}
}

func (q *Queue) currentRepairer() interfaces.IndexRepairer {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repairer
}

// processIndexRepair runs one job and puts it back on the queue until maxAttempts is reached.
func processIndexRepair(q interfaces.QueueService, repairer interfaces.IndexRepairer, workerID int, job *interfaces.IndexRepairJob, maxAttempts int) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultJobTimeout)
	defer cancel()

	job.Attempts++
	err := repairer.RepairUserIndex(ctx, job.UserID)
	if err == nil {
		logger.Debug("Worker %d repaired index for user %s (%s)", workerID, job.UserID, job.Reason)
		return
	}

	if job.Attempts >= maxAttempts {
		logger.Error("Worker %d gave up repairing index for user %s after %d attempts: %v", workerID, job.UserID, job.Attempts, err)
		return
	}

	logger.Warn("Worker %d failed to repair index for user %s (attempt %d): %v", workerID, job.UserID, job.Attempts, err)
	if err := q.EnqueueIndexRepair(ctx, *job); err != nil {
		logger.Error("Failed to requeue index repair for user %s: %v", job.UserID, err)
	}
}

var _ interfaces.QueueService = (*Queue)(nil)
