package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

func newAppealRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func queueColumns() []string {
	return []string{
		"id", "full_name", "national_id", "personnel_code", "phone", "academic_year",
		"district_code", "province_code", "overall_review_status", "reviewed_by", "reviewed_at",
		"decision", "decided_by", "decided_at", "decision_comment", "decider_role", "created_at",
		"current_request_status", "effective_years",
	}
}

func TestAppealRepositoryListQueueDistrict(t *testing.T) {
	db, mock, cleanup := newAppealRepoMock(t)
	defer cleanup()

	repo := NewAppealRepository(db)
	rows := sqlmock.NewRows(queueColumns()).
		AddRow("ap-1", "Jane Doe", "0012345678", "PC-9", "0912", "1403",
			"D-014", "P-03", "not_started", nil, nil,
			nil, nil, nil, nil, nil, time.Now(),
			"source_review", 12)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN transfer_applicants t ON t.personnel_code = a.personnel_code")).
		WithArgs("D-014", "1403").
		WillReturnRows(rows)

	list, err := repo.ListQueue(context.Background(), models.GeographicScope{Type: models.ScopeDistrict, Code: "D-014"}, "1403")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "ap-1", list[0].ID)
	require.NotNil(t, list[0].CurrentRequestStatus)
	require.Equal(t, models.StatusSourceReview, *list[0].CurrentRequestStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppealRepositoryListQueueProvinceWithoutYear(t *testing.T) {
	db, mock, cleanup := newAppealRepoMock(t)
	defer cleanup()

	repo := NewAppealRepository(db)
	rows := sqlmock.NewRows(queueColumns()).
		AddRow("ap-2", "John Roe", "0098765432", "PC-77", "0913", "1402",
			"D-020", "P-03", "in_review", "u-1", time.Now(),
			nil, nil, nil, nil, nil, time.Now(),
			nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN transfer_applicants t ON t.personnel_code = a.personnel_code")).
		WithArgs("P-03").
		WillReturnRows(rows)

	list, err := repo.ListQueue(context.Background(), models.GeographicScope{Type: models.ScopeProvince, Code: "P-03"}, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Nil(t, list[0].CurrentRequestStatus)
	require.Nil(t, list[0].EffectiveYears)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppealRepositoryUpdateReasonReview(t *testing.T) {
	db, mock, cleanup := newAppealRepoMock(t)
	defer cleanup()

	repo := NewAppealRepository(db)
	comment := "document verified"
	params := ReasonReviewParams{
		AppealID:             "ap-1",
		ReasonID:             "r-2",
		Status:               models.ReviewStatusApproved,
		ReviewedBy:           "u-1",
		ReviewedAt:           time.Now(),
		ExpertComment:        &comment,
		ReviewerRole:         "districtTransferExpert",
		ReviewerLocationCode: "D-014",
		Metadata:             []byte(`{}`),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeal_reasons SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateReasonReview(context.Background(), params))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeal_reasons SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateReasonReview(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppealRepositoryRecordDecision(t *testing.T) {
	db, mock, cleanup := newAppealRepoMock(t)
	defer cleanup()

	repo := NewAppealRepository(db)
	params := DecisionParams{
		AppealID:    "ap-1",
		Decision:    models.DecisionRejected,
		DecidedBy:   "u-2",
		DecidedAt:   time.Now(),
		DeciderRole: "provinceTransferExpert",
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeal_requests SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordDecision(context.Background(), params))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeal_requests SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RecordDecision(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
