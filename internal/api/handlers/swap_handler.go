package handlers

import (
	"context"
	"net/http"

	"skillswap/internal/api/middleware"
	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/swap"
	service "skillswap/internal/interfaces/service"
	"skillswap/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReplayedHeader marks a response served from a stored idempotent result.
const ReplayedHeader = "Idempotent-Replayed"

// SwapHandler handles swap request lifecycle endpoints
type SwapHandler struct {
	swaps       service.SwapService
	idempotency service.IdempotencyService
}

func NewSwapHandler(swaps service.SwapService, idempotency service.IdempotencyService) *SwapHandler {
	return &SwapHandler{swaps: swaps, idempotency: idempotency}
}

// CreateRequest handles POST /requests. A repeated Idempotency-Key with the same body
// replays the first response instead of creating a second request.
func (h *SwapHandler) CreateRequest(c *gin.Context) {
	requesterID, _ := middleware.PrincipalID(c)

	var in swap.CreateRequestInput
	if !bindJSON(c, &in) {
		return
	}

	key := middleware.IdempotencyKey(c)
	if key != "" {
		existing, found, err := h.idempotency.CheckDuplicateRequest(c.Request.Context(), key, requesterID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		if found {
			c.Header(ReplayedHeader, "true")
			c.Data(existing.StatusCode, "application/json; charset=utf-8", []byte(existing.ResponseData))
			return
		}
	}

	req, err := h.swaps.CreateRequest(c.Request.Context(), requesterID, &in)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := APIResponse{
		Success: true,
		Message: "Swap request created",
		Data:    gin.H{"request_id": req.ID, "request": req},
	}

	if key != "" {
		if err := h.idempotency.StoreProcessedRequest(c.Request.Context(), key, requesterID, in, resp, http.StatusCreated); err != nil {
			logger.Warn("Failed to store idempotency result for request %s: %v", req.ID, err)
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// ListRequests handles GET /requests?direction=all|sent|received
func (h *SwapHandler) ListRequests(c *gin.Context) {
	userID, _ := middleware.PrincipalID(c)

	direction, ok := swap.ParseDirection(c.Query("direction"))
	if !ok {
		respondError(c, apperror.Validation("direction", "direction must be all, sent or received"))
		return
	}

	requests, err := h.swaps.ListRequests(c.Request.Context(), userID, direction)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    requests,
	})
}

// GetRequest handles GET /requests/:id
func (h *SwapHandler) GetRequest(c *gin.Context) {
	callerID, _ := middleware.PrincipalID(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	req, err := h.swaps.GetRequest(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    req,
	})
}

// Accept handles POST /requests/:id/accept
func (h *SwapHandler) Accept(c *gin.Context) {
	h.transition(c, h.swaps.Accept, "Swap request accepted")
}

// Decline handles POST /requests/:id/decline
func (h *SwapHandler) Decline(c *gin.Context) {
	h.transition(c, h.swaps.Decline, "Swap request declined")
}

type transitionFunc func(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error)

func (h *SwapHandler) transition(c *gin.Context, fn transitionFunc, message string) {
	callerID, _ := middleware.PrincipalID(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	req, err := fn(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    req,
	})
}
