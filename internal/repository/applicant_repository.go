package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

// ApplicantRepository persists transfer applicant records and their
// append-only workflow trails.
type ApplicantRepository struct {
	db *sqlx.DB
}

// NewApplicantRepository constructs the repository.
func NewApplicantRepository(db *sqlx.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

// FindByPersonnelCode fetches the applicant record for a personnel code.
func (r *ApplicantRepository) FindByPersonnelCode(ctx context.Context, personnelCode string) (*models.TransferApplicant, error) {
	const query = `SELECT personnel_code, current_request_status, current_workplace_code, effective_years, updated_at
	FROM transfer_applicants WHERE personnel_code = $1`
	var applicant models.TransferApplicant
	if err := r.db.GetContext(ctx, &applicant, query, personnelCode); err != nil {
		return nil, err
	}
	return &applicant, nil
}

// TransitionParams describes one applicant status transition.
type TransitionParams struct {
	PersonnelCode string
	NewStatus     models.RequestStatus
	// SkipIfCurrent makes the transition a no-op when the applicant is
	// already in NewStatus instead of re-logging it.
	SkipIfCurrent bool
	ActionType    string
	PerformedBy   string
	Reason        string
	Comment       string
	Metadata      []byte
}

// TransitionResult reports the outcome of a Transition call.
type TransitionResult struct {
	Previous     models.RequestStatus
	Transitioned bool
}

// Transition atomically moves the applicant to the new status and appends
// one workflow entry plus one status log entry. The current status is read
// under a row lock inside the same transaction, so concurrent guarded
// transitions cannot double-log.
func (r *ApplicantRepository) Transition(ctx context.Context, params TransitionParams) (*TransitionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var previous models.RequestStatus
	if err = tx.GetContext(ctx, &previous,
		`SELECT current_request_status FROM transfer_applicants WHERE personnel_code = $1 FOR UPDATE`,
		params.PersonnelCode); err != nil {
		return nil, err
	}

	if params.SkipIfCurrent && previous == params.NewStatus {
		if err = tx.Rollback(); err != nil {
			return nil, fmt.Errorf("rollback skipped transition: %w", err)
		}
		return &TransitionResult{Previous: previous, Transitioned: false}, nil
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE transfer_applicants SET current_request_status = $2, updated_at = $3 WHERE personnel_code = $1`,
		params.PersonnelCode, params.NewStatus, now); err != nil {
		return nil, fmt.Errorf("update applicant status: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO applicant_workflow (id, personnel_code, status, changed_by, changed_at, previous_status, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), params.PersonnelCode, params.NewStatus, params.PerformedBy, now, previous, params.Reason, params.Metadata); err != nil {
		return nil, fmt.Errorf("append workflow entry: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO applicant_status_log (id, personnel_code, from_status, to_status, action_type, performed_by, performed_at, comment, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(), params.PersonnelCode, previous, params.NewStatus, params.ActionType, params.PerformedBy, now, params.Comment, params.Metadata); err != nil {
		return nil, fmt.Errorf("append status log entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}
	return &TransitionResult{Previous: previous, Transitioned: true}, nil
}

// ListWorkflow returns the applicant's workflow trail, oldest first.
func (r *ApplicantRepository) ListWorkflow(ctx context.Context, personnelCode string) ([]models.WorkflowEntry, error) {
	const query = `SELECT id, personnel_code, status, changed_by, changed_at, previous_status, reason, metadata
	FROM applicant_workflow WHERE personnel_code = $1 ORDER BY changed_at`
	var entries []models.WorkflowEntry
	if err := r.db.SelectContext(ctx, &entries, query, personnelCode); err != nil {
		return nil, fmt.Errorf("list workflow entries: %w", err)
	}
	return entries, nil
}

// ListStatusLog returns the applicant's status log, oldest first.
func (r *ApplicantRepository) ListStatusLog(ctx context.Context, personnelCode string) ([]models.StatusLogEntry, error) {
	const query = `SELECT id, personnel_code, from_status, to_status, action_type, performed_by, performed_at, comment, metadata
	FROM applicant_status_log WHERE personnel_code = $1 ORDER BY performed_at`
	var entries []models.StatusLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, personnelCode); err != nil {
		return nil, fmt.Errorf("list status log entries: %w", err)
	}
	return entries, nil
}
