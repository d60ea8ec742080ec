package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimarzv/transfer-review-api/internal/models"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
)

type geoStub struct {
	districts map[string]string
	provinces map[string]string
}

func (g *geoStub) ResolveDistrictCode(ctx context.Context, ref string) (string, error) {
	if code, ok := g.districts[ref]; ok {
		return code, nil
	}
	return "", sql.ErrNoRows
}

func (g *geoStub) ResolveProvinceCode(ctx context.Context, ref string) (string, error) {
	if code, ok := g.provinces[ref]; ok {
		return code, nil
	}
	return "", sql.ErrNoRows
}

func TestScopeServiceResolvesDistrictFromCode(t *testing.T) {
	geo := &geoStub{districts: map[string]string{"D-014": "D-014"}}
	svc := NewScopeService(geo, nil)

	scope, err := svc.Resolve(context.Background(), &models.JWTClaims{Role: models.RoleDistrictExpert, District: "D-014"})
	require.NoError(t, err)
	assert.Equal(t, models.GeographicScope{Type: models.ScopeDistrict, Code: "D-014"}, scope)
}

func TestScopeServiceResolvesProvinceFromCatalogRef(t *testing.T) {
	geo := &geoStub{provinces: map[string]string{"prov-uuid-3": "P-03"}}
	svc := NewScopeService(geo, nil)

	scope, err := svc.Resolve(context.Background(), &models.JWTClaims{Role: models.RoleProvinceExpert, Province: "prov-uuid-3"})
	require.NoError(t, err)
	assert.Equal(t, models.GeographicScope{Type: models.ScopeProvince, Code: "P-03"}, scope)
}

func TestScopeServiceRejectsNonExpertRole(t *testing.T) {
	svc := NewScopeService(&geoStub{}, nil)

	_, err := svc.Resolve(context.Background(), &models.JWTClaims{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScopeServiceMissingAssignment(t *testing.T) {
	svc := NewScopeService(&geoStub{}, nil)

	_, err := svc.Resolve(context.Background(), &models.JWTClaims{Role: models.RoleDistrictExpert})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScopeNotFound.Code, appErrors.FromError(err).Code)
}

func TestScopeServiceUnresolvedReference(t *testing.T) {
	svc := NewScopeService(&geoStub{districts: map[string]string{}}, nil)

	_, err := svc.Resolve(context.Background(), &models.JWTClaims{Role: models.RoleDistrictExpert, District: "ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScopeNotFound.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrScopeNotFound.Status, appErr.Status)
}

func TestScopeServiceNilClaims(t *testing.T) {
	svc := NewScopeService(&geoStub{}, nil)

	_, err := svc.Resolve(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
