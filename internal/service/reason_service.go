package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nimarzv/transfer-review-api/internal/models"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
)

const reasonCatalogCacheKey = "review:reasons:active"

// ReasonService serves the transfer reason catalog. The catalog changes
// rarely, so it is cached aggressively.
type ReasonService struct {
	reasons reasonCatalog
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewReasonService constructs the service.
func NewReasonService(reasons reasonCatalog, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReasonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReasonService{reasons: reasons, cache: cache, ttl: ttl, logger: logger}
}

// ListActive returns the active catalog entries.
func (s *ReasonService) ListActive(ctx context.Context) ([]models.TransferReason, error) {
	var cached []models.TransferReason
	if hit, _ := s.cache.Get(ctx, reasonCatalogCacheKey, &cached); hit {
		return cached, nil
	}

	reasons, err := s.reasons.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfer reasons")
	}
	if reasons == nil {
		reasons = []models.TransferReason{}
	}

	if err := s.cache.Set(ctx, reasonCatalogCacheKey, reasons, s.ttl); err != nil {
		s.logger.Warn("failed to cache reason catalog", zap.Error(err))
	}
	return reasons, nil
}
