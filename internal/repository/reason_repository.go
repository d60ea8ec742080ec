package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

const transferReasonColumns = `id, code, title, requires_document, requires_province_approval, active, created_at`

// ReasonRepository reads the transfer reason catalog.
type ReasonRepository struct {
	db *sqlx.DB
}

// NewReasonRepository constructs the repository.
func NewReasonRepository(db *sqlx.DB) *ReasonRepository {
	return &ReasonRepository{db: db}
}

// ListActive returns the active catalog entries in code order.
func (r *ReasonRepository) ListActive(ctx context.Context) ([]models.TransferReason, error) {
	query := fmt.Sprintf(`SELECT %s FROM transfer_reasons WHERE active = TRUE ORDER BY code`, transferReasonColumns)
	var reasons []models.TransferReason
	if err := r.db.SelectContext(ctx, &reasons, query); err != nil {
		return nil, fmt.Errorf("list transfer reasons: %w", err)
	}
	return reasons, nil
}

// FindByIDs loads catalog entries for the given ids, active or not, so
// queue views can still resolve reasons retired after filing.
func (r *ReasonRepository) FindByIDs(ctx context.Context, ids []string) ([]models.TransferReason, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM transfer_reasons WHERE id IN (%s)`, transferReasonColumns, strings.Join(placeholders, ","))
	var reasons []models.TransferReason
	if err := r.db.SelectContext(ctx, &reasons, query, args...); err != nil {
		return nil, fmt.Errorf("find transfer reasons: %w", err)
	}
	return reasons, nil
}
