package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

func newApplicantRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicantRepositoryTransitionAppendsBothTrails(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()

	repo := NewApplicantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT current_request_status FROM transfer_applicants WHERE personnel_code = $1 FOR UPDATE")).
		WithArgs("PC-9").
		WillReturnRows(sqlmock.NewRows([]string{"current_request_status"}).AddRow("awaiting_source"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_applicants SET current_request_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_workflow")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_status_log")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Transition(context.Background(), TransitionParams{
		PersonnelCode: "PC-9",
		NewStatus:     models.StatusSourceReview,
		SkipIfCurrent: true,
		ActionType:    models.ActionSourceReview,
		PerformedBy:   "u-1",
		Reason:        "appeal reasons under review",
		Metadata:      []byte(`{"reviewsApplied":2}`),
	})
	require.NoError(t, err)
	require.True(t, result.Transitioned)
	require.Equal(t, models.RequestStatus("awaiting_source"), result.Previous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepositoryTransitionSkipsWhenAlreadyCurrent(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()

	repo := NewApplicantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT current_request_status FROM transfer_applicants WHERE personnel_code = $1 FOR UPDATE")).
		WithArgs("PC-9").
		WillReturnRows(sqlmock.NewRows([]string{"current_request_status"}).AddRow("source_review"))
	mock.ExpectRollback()

	result, err := repo.Transition(context.Background(), TransitionParams{
		PersonnelCode: "PC-9",
		NewStatus:     models.StatusSourceReview,
		SkipIfCurrent: true,
		ActionType:    models.ActionSourceReview,
		PerformedBy:   "u-1",
	})
	require.NoError(t, err)
	require.False(t, result.Transitioned)
	require.Equal(t, models.StatusSourceReview, result.Previous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepositoryTransitionRelogsWithoutGuard(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()

	repo := NewApplicantRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT current_request_status FROM transfer_applicants WHERE personnel_code = $1 FOR UPDATE")).
		WithArgs("PC-9").
		WillReturnRows(sqlmock.NewRows([]string{"current_request_status"}).AddRow("exception_eligibility_approval"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transfer_applicants SET current_request_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_workflow")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicant_status_log")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Transition(context.Background(), TransitionParams{
		PersonnelCode: "PC-9",
		NewStatus:     models.StatusEligibilityApproval,
		ActionType:    models.ActionEligibilityApprove,
		PerformedBy:   "u-2",
	})
	require.NoError(t, err)
	require.True(t, result.Transitioned)
	require.NoError(t, mock.ExpectationsWereMet())
}
