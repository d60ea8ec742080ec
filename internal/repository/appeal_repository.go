package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

const appealColumns = `id, full_name, national_id, personnel_code, phone, academic_year, district_code, province_code,
       overall_review_status, reviewed_by, reviewed_at, decision, decided_by, decided_at, decision_comment, decider_role, created_at`

const reasonColumns = `id, appeal_id, reason_id, position, review_status, reviewed_by, reviewed_at, expert_comment,
       reviewer_role, reviewer_location_code, metadata`

// AppealRepository persists appeal requests and their reason reviews.
type AppealRepository struct {
	db *sqlx.DB
}

// NewAppealRepository constructs the repository.
func NewAppealRepository(db *sqlx.DB) *AppealRepository {
	return &AppealRepository{db: db}
}

// GetByID fetches an appeal by identifier.
func (r *AppealRepository) GetByID(ctx context.Context, id string) (*models.AppealRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM appeal_requests WHERE id = $1`, appealColumns)
	var appeal models.AppealRequest
	if err := r.db.GetContext(ctx, &appeal, query, id); err != nil {
		return nil, err
	}
	return &appeal, nil
}

// QueueRow is one queue listing entry: the appeal joined with the live
// applicant status. The applicant columns are null for province-scope rows
// whose personnel code has no matching applicant record.
type QueueRow struct {
	models.AppealRequest
	CurrentRequestStatus *models.RequestStatus `db:"current_request_status"`
	EffectiveYears       *int                  `db:"effective_years"`
}

// ListQueue returns the appeals visible to the given scope, newest first.
// Appeals without any selected reason never qualify. District scope demands
// both the filing snapshot and the applicant's current workplace to match;
// province scope checks the filing snapshot only.
func (r *AppealRepository) ListQueue(ctx context.Context, scope models.GeographicScope, academicYear string) ([]QueueRow, error) {
	builder := strings.Builder{}
	args := []interface{}{scope.Code}

	builder.WriteString(`SELECT `)
	for i, col := range strings.Split(appealColumns, ",") {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString("a." + strings.TrimSpace(col))
	}
	builder.WriteString(`, t.current_request_status AS current_request_status, t.effective_years AS effective_years`)
	builder.WriteString(` FROM appeal_requests a`)

	switch scope.Type {
	case models.ScopeDistrict:
		builder.WriteString(` JOIN transfer_applicants t ON t.personnel_code = a.personnel_code`)
		builder.WriteString(` WHERE a.district_code = $1 AND t.current_workplace_code = $1`)
	case models.ScopeProvince:
		builder.WriteString(` LEFT JOIN transfer_applicants t ON t.personnel_code = a.personnel_code`)
		builder.WriteString(` WHERE a.province_code = $1`)
	default:
		return nil, fmt.Errorf("unknown scope type: %s", scope.Type)
	}

	builder.WriteString(` AND EXISTS (SELECT 1 FROM appeal_reasons r WHERE r.appeal_id = a.id)`)

	if academicYear != "" {
		args = append(args, academicYear)
		builder.WriteString(fmt.Sprintf(" AND a.academic_year = $%d", len(args)))
	}

	builder.WriteString(` ORDER BY a.created_at DESC`)

	var rows []QueueRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	return rows, nil
}

// ListReasons returns an appeal's selected reasons in filing order.
func (r *AppealRepository) ListReasons(ctx context.Context, appealID string) ([]models.SelectedReason, error) {
	query := fmt.Sprintf(`SELECT %s FROM appeal_reasons WHERE appeal_id = $1 ORDER BY position`, reasonColumns)
	var reasons []models.SelectedReason
	if err := r.db.SelectContext(ctx, &reasons, query, appealID); err != nil {
		return nil, fmt.Errorf("list appeal reasons: %w", err)
	}
	return reasons, nil
}

// ListReasonsForAppeals loads reasons for a batch of appeals in one query.
func (r *AppealRepository) ListReasonsForAppeals(ctx context.Context, appealIDs []string) ([]models.SelectedReason, error) {
	if len(appealIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(appealIDs))
	args := make([]interface{}, len(appealIDs))
	for i, id := range appealIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM appeal_reasons WHERE appeal_id IN (%s) ORDER BY appeal_id, position`,
		reasonColumns, strings.Join(placeholders, ","))
	var reasons []models.SelectedReason
	if err := r.db.SelectContext(ctx, &reasons, query, args...); err != nil {
		return nil, fmt.Errorf("list reasons for appeals: %w", err)
	}
	return reasons, nil
}

// ReasonReviewParams groups the columns written by a per-reason review.
type ReasonReviewParams struct {
	AppealID             string
	ReasonID             string
	Status               models.ReviewStatus
	ReviewedBy           string
	ReviewedAt           time.Time
	ExpertComment        *string
	ReviewerRole         string
	ReviewerLocationCode string
	Metadata             []byte
}

// UpdateReasonReview writes one reason's review block.
func (r *AppealRepository) UpdateReasonReview(ctx context.Context, params ReasonReviewParams) error {
	const query = `UPDATE appeal_reasons SET
		review_status = :review_status,
		reviewed_by = :reviewed_by,
		reviewed_at = :reviewed_at,
		expert_comment = :expert_comment,
		reviewer_role = :reviewer_role,
		reviewer_location_code = :reviewer_location_code,
		metadata = :metadata
	WHERE appeal_id = :appeal_id AND reason_id = :reason_id`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"appeal_id":              params.AppealID,
		"reason_id":              params.ReasonID,
		"review_status":          params.Status,
		"reviewed_by":            params.ReviewedBy,
		"reviewed_at":            params.ReviewedAt,
		"expert_comment":         params.ExpertComment,
		"reviewer_role":          params.ReviewerRole,
		"reviewer_location_code": params.ReviewerLocationCode,
		"metadata":               params.Metadata,
	})
	if err != nil {
		return fmt.Errorf("update reason review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reason review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkInReview stamps the appeal as being reviewed.
func (r *AppealRepository) MarkInReview(ctx context.Context, appealID, reviewerID string, at time.Time) error {
	const query = `UPDATE appeal_requests SET overall_review_status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, appealID, models.OverallReviewInReview, reviewerID, at); err != nil {
		return fmt.Errorf("mark appeal in review: %w", err)
	}
	return nil
}

// DecisionParams groups the columns written by a final eligibility decision.
type DecisionParams struct {
	AppealID    string
	Decision    models.DecisionValue
	DecidedBy   string
	DecidedAt   time.Time
	Comment     *string
	DeciderRole string
}

// RecordDecision persists the terminal verdict and completes the review.
func (r *AppealRepository) RecordDecision(ctx context.Context, params DecisionParams) error {
	const query = `UPDATE appeal_requests SET
		decision = :decision,
		decided_by = :decided_by,
		decided_at = :decided_at,
		decision_comment = :decision_comment,
		decider_role = :decider_role,
		overall_review_status = :overall_review_status
	WHERE id = :appeal_id`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"appeal_id":             params.AppealID,
		"decision":              params.Decision,
		"decided_by":            params.DecidedBy,
		"decided_at":            params.DecidedAt,
		"decision_comment":      params.Comment,
		"decider_role":          params.DeciderRole,
		"overall_review_status": models.OverallReviewCompleted,
	})
	if err != nil {
		return fmt.Errorf("record eligibility decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDocuments returns the appeal's uploaded document slots.
func (r *AppealRepository) ListDocuments(ctx context.Context, appealID string) ([]models.AppealDocument, error) {
	const query = `SELECT appeal_id, slot, file_ref FROM appeal_documents WHERE appeal_id = $1 ORDER BY slot`
	var docs []models.AppealDocument
	if err := r.db.SelectContext(ctx, &docs, query, appealID); err != nil {
		return nil, fmt.Errorf("list appeal documents: %w", err)
	}
	return docs, nil
}

// ListMessages returns the appeal's discussion thread with sender display
// names resolved from the users table.
func (r *AppealRepository) ListMessages(ctx context.Context, appealID string) ([]models.AppealMessage, error) {
	const query = `SELECT m.id, m.appeal_id, m.sender_id, COALESCE(u.full_name, 'Unknown') AS sender_name, m.body, m.sent_at
	FROM appeal_messages m
	LEFT JOIN users u ON u.id = m.sender_id
	WHERE m.appeal_id = $1
	ORDER BY m.sent_at`
	var messages []models.AppealMessage
	if err := r.db.SelectContext(ctx, &messages, query, appealID); err != nil {
		return nil, fmt.Errorf("list appeal messages: %w", err)
	}
	return messages, nil
}
