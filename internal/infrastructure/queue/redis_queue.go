package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	interfaces "skillswap/internal/interfaces/infrastructure"
	"skillswap/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	IndexRepairQueueKey = "skillswap:queue:index_repair"
	errorBackoff        = time.Second
)

// RedisQueue keeps repair jobs in a Redis list so they survive a restart and are shared by replicas.
type RedisQueue struct {
	client redis.UniversalClient

	workers     int
	maxAttempts int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
	mu          sync.RWMutex

	repairer interfaces.IndexRepairer
}

// NewRedisQueue creates a new Redis-based queue service on an existing client
func NewRedisQueue(client redis.UniversalClient, workers, maxAttempts int) *RedisQueue {
	ctx, cancel := context.WithCancel(context.Background())
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &RedisQueue{
		client:      client,
		workers:     workers,
		maxAttempts: maxAttempts,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (rq *RedisQueue) SetRepairer(repairer interfaces.IndexRepairer) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.repairer = repairer
}

func (rq *RedisQueue) StartWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if rq.started {
		return
	}

	if rq.repairer == nil {
		logger.Warn("Index repairer not set, workers cannot process jobs")
		return
	}

	logger.Info("Starting %d Redis index repair workers", rq.workers)

	for i := 0; i < rq.workers; i++ {
		rq.wg.Add(1)
		go rq.indexRepairWorker(i)
	}

	rq.started = true
}

func (rq *RedisQueue) StopWorkers() {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	if !rq.started {
		return
	}

	logger.Info("Stopping Redis index repair workers...")
	rq.cancel()
	rq.wg.Wait()
	rq.started = false
	logger.Info("Redis index repair workers stopped")
}

// EnqueueIndexRepair adds a repair job to the Redis list
func (rq *RedisQueue) EnqueueIndexRepair(ctx context.Context, job interfaces.IndexRepairJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal index repair job: %w", err)
	}

	if err := rq.client.LPush(ctx, IndexRepairQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue index repair job: %w", err)
	}

	logger.Debug("Enqueued index repair for user %s", job.UserID)
	return nil
}

// DequeueIndexRepair blocks up to the poll timeout for the oldest job
func (rq *RedisQueue) DequeueIndexRepair(ctx context.Context) (*interfaces.IndexRepairJob, error) {
	result, err := rq.client.BRPop(ctx, pollTimeout, IndexRepairQueueKey).Result()
	if err != nil {
		if err == redis.Nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue index repair job: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected Redis BRPOP result format")
	}

	var job interfaces.IndexRepairJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index repair job: %w", err)
	}

	return &job, nil
}

func (rq *RedisQueue) indexRepairWorker(workerID int) {
	defer rq.wg.Done()

	for {
		select {
		case <-rq.ctx.Done():
			return
		default:
			job, err := rq.DequeueIndexRepair(rq.ctx)
			if err != nil {
				if rq.ctx.Err() != nil {
					return
				}
				logger.Error("Redis index repair worker %d error: %v", workerID, err)
				select {
				case <-rq.ctx.Done():
				case <-time.After(errorBackoff):
				}
				continue
			}
			if job != nil {
				rq.mu.RLock()
				repairer := rq.repairer
				rq.mu.RUnlock()
				processIndexRepair(rq, repairer, workerID, job, rq.maxAttempts)
			}
		}
	}
}

var _ interfaces.QueueService = (*RedisQueue)(nil)
