package service

import (
	"context"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/swap"
	infrastructure "skillswap/internal/interfaces/infrastructure"
	interfaces "skillswap/internal/interfaces/service"
	"skillswap/internal/metrics"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// swapService runs the swap request state machine: pending -> accepted | declined.
type swapService struct {
	requests infrastructure.SwapRequestRepository
	users    infrastructure.UserRepository
	clock    Clock
	metrics  metrics.MetricsCollector
}

func NewSwapService(
	requests infrastructure.SwapRequestRepository,
	users infrastructure.UserRepository,
	clock Clock,
	collector metrics.MetricsCollector,
) interfaces.SwapService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &swapService{
		requests: requests,
		users:    users,
		clock:    clock,
		metrics:  collector,
	}
}

func (s *swapService) CreateRequest(ctx context.Context, requesterID uuid.UUID, in *swap.CreateRequestInput) (*swap.Request, error) {
	req, err := s.createRequest(ctx, requesterID, in)
	if err != nil {
		s.metrics.RecordRequestRejected(string(apperror.KindOf(err)))
		return nil, err
	}

	s.metrics.RecordRequestCreated()
	logger.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"requester_id": req.RequesterID,
		"receiver_id":  req.ReceiverID,
	}).Info("Swap request created")
	return req, nil
}

func (s *swapService) createRequest(ctx context.Context, requesterID uuid.UUID, in *swap.CreateRequestInput) (*swap.Request, error) {
	normalized := *in
	normalized.OfferedSkill = skill.Normalize(in.OfferedSkill)
	normalized.WantedSkill = skill.Normalize(in.WantedSkill)

	if err := validate(&normalized); err != nil {
		return nil, err
	}
	if requesterID == normalized.ReceiverID {
		return nil, apperror.Validation("receiver_id", "cannot send a swap request to yourself")
	}

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.Active {
		return nil, apperror.NotFound("user", requester.ID.String())
	}
	receiver, err := s.users.GetByID(ctx, normalized.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !receiver.Active {
		return nil, apperror.NotFound("user", receiver.ID.String())
	}

	req := swap.NewRequest(requesterID, &normalized, s.clock.Now())
	if err := s.requests.CreatePending(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *swapService) ListRequests(ctx context.Context, userID uuid.UUID, direction swap.Direction) ([]*swap.Request, error) {
	if direction == "" {
		direction = swap.DirectionAll
	}
	return s.requests.ListForUser(ctx, userID, direction)
}

// GetRequest returns the request to either party; anyone else gets an authorization error.
func (s *swapService) GetRequest(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Involves(callerID) {
		return nil, apperror.Authorization("swap_request", id.String(), "only the requester or receiver may view this request")
	}
	return req, nil
}

func (s *swapService) Accept(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error) {
	return s.transition(ctx, id, callerID, swap.StatusAccepted)
}

func (s *swapService) Decline(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error) {
	return s.transition(ctx, id, callerID, swap.StatusDeclined)
}

// transition checks existence, then the caller, then the state. The final state check is the
// repository's compare-and-set, so of several concurrent callers exactly one succeeds.
func (s *swapService) transition(ctx context.Context, id, callerID uuid.UUID, target swap.Status) (*swap.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != callerID {
		return nil, apperror.Authorization("swap_request", id.String(), "only the receiver may "+verb(target)+" this request")
	}
	if !swap.CanTransition(req.Status, target) {
		return nil, apperror.InvalidState("swap_request", id.String(), "request is already "+string(req.Status))
	}

	updated, err := s.requests.Transition(ctx, id, target, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(target))
	logger.WithFields(logrus.Fields{
		"request_id": id,
		"status":     target,
	}).Info("Swap request transitioned")
	return updated, nil
}

func verb(target swap.Status) string {
	if target == swap.StatusAccepted {
		return "accept"
	}
	return "decline"
}
