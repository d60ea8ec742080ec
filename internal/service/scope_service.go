package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nimarzv/transfer-review-api/internal/models"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
)

type geographyResolver interface {
	ResolveDistrictCode(ctx context.Context, ref string) (string, error)
	ResolveProvinceCode(ctx context.Context, ref string) (string, error)
}

// ScopeService turns an authenticated expert's claims into the single
// geographic scope their review actions are bound to. Reviewer records may
// carry either a denormalized code or a bare catalog reference; both resolve
// through the geography catalog so callers never see the difference.
type ScopeService struct {
	geo    geographyResolver
	logger *zap.Logger
}

// NewScopeService constructs the service.
func NewScopeService(geo geographyResolver, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{geo: geo, logger: logger}
}

// Resolve returns the actor's geographic scope. Non-expert roles are
// rejected outright; experts whose geographic assignment cannot be resolved
// get ErrScopeNotFound.
func (s *ScopeService) Resolve(ctx context.Context, actor *models.JWTClaims) (models.GeographicScope, error) {
	if actor == nil {
		return models.GeographicScope{}, appErrors.ErrUnauthorized
	}

	switch actor.Role {
	case models.RoleDistrictExpert:
		return s.resolve(ctx, models.ScopeDistrict, actor.District, s.geo.ResolveDistrictCode)
	case models.RoleProvinceExpert:
		return s.resolve(ctx, models.ScopeProvince, actor.Province, s.geo.ResolveProvinceCode)
	default:
		return models.GeographicScope{}, appErrors.Clone(appErrors.ErrForbidden, "role is not permitted to review appeals")
	}
}

func (s *ScopeService) resolve(ctx context.Context, scopeType models.ScopeType, ref string, lookup func(context.Context, string) (string, error)) (models.GeographicScope, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.GeographicScope{}, appErrors.Clone(appErrors.ErrScopeNotFound, "reviewer has no geographic assignment")
	}

	code, err := lookup(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("geographic reference did not resolve",
				zap.String("scope", string(scopeType)),
				zap.String("ref", ref))
			return models.GeographicScope{}, appErrors.Clone(appErrors.ErrScopeNotFound, "geographic assignment could not be resolved")
		}
		return models.GeographicScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve geographic scope")
	}

	return models.GeographicScope{Type: scopeType, Code: code}, nil
}
