package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/swap"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

type pairKey struct {
	requester uuid.UUID
	receiver  uuid.UUID
}

// memorySwapRepository keeps swap requests in memory. A single mutex makes the
// pending-pair check and the insert one step.
type memorySwapRepository struct {
	requests map[uuid.UUID]*swap.Request
	pending  map[pairKey]uuid.UUID
	mutex    sync.RWMutex
}

// NewMemorySwapRepository creates a new in-memory swap request repository
func NewMemorySwapRepository() *memorySwapRepository {
	return &memorySwapRepository{
		requests: make(map[uuid.UUID]*swap.Request),
		pending:  make(map[pairKey]uuid.UUID),
	}
}

func (r *memorySwapRepository) CreatePending(ctx context.Context, req *swap.Request) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := pairKey{requester: req.RequesterID, receiver: req.ReceiverID}
	if _, exists := r.pending[key]; exists {
		return apperror.Conflict("swap_request", "receiver_id", "a pending request to this user already exists")
	}
	if _, exists := r.requests[req.ID]; exists {
		return apperror.Conflict("swap_request", "id", "swap request already exists")
	}

	stored := *req
	r.requests[req.ID] = &stored
	r.pending[key] = req.ID
	return nil
}

func (r *memorySwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*swap.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	req, exists := r.requests[id]
	if !exists {
		return nil, apperror.NotFound("swap_request", id.String())
	}
	c := *req
	return &c, nil
}

func (r *memorySwapRepository) ListForUser(ctx context.Context, userID uuid.UUID, direction swap.Direction) ([]*swap.Request, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	requests := make([]*swap.Request, 0)
	for _, req := range r.requests {
		switch direction {
		case swap.DirectionSent:
			if req.RequesterID != userID {
				continue
			}
		case swap.DirectionReceived:
			if req.ReceiverID != userID {
				continue
			}
		default:
			if !req.Involves(userID) {
				continue
			}
		}
		c := *req
		requests = append(requests, &c)
	}

	sort.Slice(requests, func(i, j int) bool {
		return swap.Newer(requests[i], requests[j])
	})
	return requests, nil
}

func (r *memorySwapRepository) Transition(ctx context.Context, id uuid.UUID, status swap.Status, at time.Time) (*swap.Request, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	req, exists := r.requests[id]
	if !exists {
		return nil, apperror.NotFound("swap_request", id.String())
	}
	if !swap.CanTransition(req.Status, status) {
		return nil, apperror.InvalidState("swap_request", id.String(), "request is already "+string(req.Status))
	}

	req.Status = status
	req.UpdatedAt = at
	delete(r.pending, pairKey{requester: req.RequesterID, receiver: req.ReceiverID})

	c := *req
	return &c, nil
}

var _ interfaces.SwapRequestRepository = (*memorySwapRepository)(nil)
