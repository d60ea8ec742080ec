package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

// AcademicYearRepository reads the academic year calendar.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs the repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// FindActive returns the currently active academic year. Callers treat
// sql.ErrNoRows as "no active year", not as a failure.
func (r *AcademicYearRepository) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	const query = `SELECT id, year, start_date, end_date, is_active, created_at FROM academic_years WHERE is_active = TRUE LIMIT 1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}
