package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GeographyRepository resolves district and province references against the
// reference catalog. Lookups accept either the stable code or the internal
// id so callers never branch on which form a reviewer record carries.
type GeographyRepository struct {
	db *sqlx.DB
}

// NewGeographyRepository constructs the repository.
func NewGeographyRepository(db *sqlx.DB) *GeographyRepository {
	return &GeographyRepository{db: db}
}

// ResolveDistrictCode returns the stable district code for a code or id.
func (r *GeographyRepository) ResolveDistrictCode(ctx context.Context, ref string) (string, error) {
	const query = `SELECT code FROM districts WHERE code = $1 OR id = $1 LIMIT 1`
	var code string
	if err := r.db.GetContext(ctx, &code, query, ref); err != nil {
		return "", err
	}
	return code, nil
}

// ResolveProvinceCode returns the stable province code for a code or id.
func (r *GeographyRepository) ResolveProvinceCode(ctx context.Context, ref string) (string, error) {
	const query = `SELECT code FROM provinces WHERE code = $1 OR id = $1 LIMIT 1`
	var code string
	if err := r.db.GetContext(ctx, &code, query, ref); err != nil {
		return "", err
	}
	return code, nil
}

// DistrictName returns the display name for a district code.
func (r *GeographyRepository) DistrictName(ctx context.Context, code string) (string, error) {
	const query = `SELECT name FROM districts WHERE code = $1 LIMIT 1`
	var name string
	if err := r.db.GetContext(ctx, &name, query, code); err != nil {
		return "", fmt.Errorf("district name for %s: %w", code, err)
	}
	return name, nil
}
