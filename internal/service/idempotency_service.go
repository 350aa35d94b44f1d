package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/idempotency"
	"skillswap/internal/infrastructure/repository"
	interfaces "skillswap/internal/interfaces/infrastructure"
	service "skillswap/internal/interfaces/service"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
)

type IdempotencyService struct {
	idempotencyRepo interfaces.IdempotencyRepository
	ttl             time.Duration
}

var _ service.IdempotencyService = (*IdempotencyService)(nil)

func NewIdempotencyService(idempotencyRepo interfaces.IdempotencyRepository, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyService{
		idempotencyRepo: idempotencyRepo,
		ttl:             ttl,
	}
}

func (s *IdempotencyService) CheckDuplicateRequest(ctx context.Context, key string, principalID uuid.UUID, requestData any) (*idempotency.Key, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	storageKey := scopedKey(principalID, key)
	existingKey, err := s.idempotencyRepo.GetByKey(ctx, storageKey)
	if err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyNotFound) {
			return nil, false, nil
		}
		logger.Error("Failed to check idempotency key: %v", err)
		return nil, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	if existingKey.IsExpired() {
		if err := s.idempotencyRepo.Delete(ctx, storageKey); err != nil {
			logger.Warn("Failed to delete expired idempotency key %s: %v", key, err)
		}
		return nil, false, nil
	}

	if existingKey.RequestHash != s.generateRequestHash(principalID, requestData) {
		logger.Warn("Idempotency key %s used with different request data", key)
		return nil, false, apperror.Conflict("idempotency_key", "Idempotency-Key", "idempotency key already used with different request data")
	}

	logger.Info("Duplicate request detected for idempotency key: %s", key)
	return existingKey, true, nil
}

func (s *IdempotencyService) StoreProcessedRequest(ctx context.Context, key string, principalID uuid.UUID, requestData any, responseData any, statusCode int) error {
	if key == "" {
		return nil
	}

	responseJSON, err := json.Marshal(responseData)
	if err != nil {
		logger.Error("Failed to marshal response data for idempotency key %s: %v", key, err)
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	now := time.Now()
	record := &idempotency.Key{
		Key:          scopedKey(principalID, key),
		PrincipalID:  principalID,
		RequestHash:  s.generateRequestHash(principalID, requestData),
		ResponseData: string(responseJSON),
		StatusCode:   statusCode,
		ProcessedAt:  now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.idempotencyRepo.Create(ctx, record); err != nil {
		logger.Error("Failed to store idempotency key %s: %v", key, err)
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	logger.Debug("Stored idempotency key: %s", key)
	return nil
}

// scopedKey keeps callers from replaying each other's keys.
func scopedKey(principalID uuid.UUID, key string) string {
	return principalID.String() + ":" + key
}

func (s *IdempotencyService) generateRequestHash(principalID uuid.UUID, requestData any) string {
	data := map[string]any{
		"principal_id": principalID.String(),
		"request_data": requestData,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}
