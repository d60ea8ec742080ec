package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/repository"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
	"github.com/nimarzv/transfer-review-api/pkg/storage"
)

type queueStoreStub struct {
	rows      []repository.QueueRow
	appeal    *models.AppealRequest
	reasons   []models.SelectedReason
	documents []models.AppealDocument
	messages  []models.AppealMessage

	lastScope models.GeographicScope
	lastYear  string
}

func (s *queueStoreStub) ListQueue(ctx context.Context, scope models.GeographicScope, academicYear string) ([]repository.QueueRow, error) {
	s.lastScope = scope
	s.lastYear = academicYear
	return s.rows, nil
}

func (s *queueStoreStub) GetByID(ctx context.Context, id string) (*models.AppealRequest, error) {
	if s.appeal == nil || s.appeal.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *s.appeal
	return &copy, nil
}

func (s *queueStoreStub) ListReasons(ctx context.Context, appealID string) ([]models.SelectedReason, error) {
	return s.reasons, nil
}

func (s *queueStoreStub) ListReasonsForAppeals(ctx context.Context, appealIDs []string) ([]models.SelectedReason, error) {
	return s.reasons, nil
}

func (s *queueStoreStub) ListDocuments(ctx context.Context, appealID string) ([]models.AppealDocument, error) {
	return s.documents, nil
}

func (s *queueStoreStub) ListMessages(ctx context.Context, appealID string) ([]models.AppealMessage, error) {
	return s.messages, nil
}

type yearStub struct {
	year *models.AcademicYear
}

func (s *yearStub) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	if s.year == nil {
		return nil, sql.ErrNoRows
	}
	return s.year, nil
}

type applicantReaderStub struct {
	applicant *models.TransferApplicant
	workflow  []models.WorkflowEntry
	statusLog []models.StatusLogEntry
}

func (s *applicantReaderStub) FindByPersonnelCode(ctx context.Context, personnelCode string) (*models.TransferApplicant, error) {
	if s.applicant == nil {
		return nil, sql.ErrNoRows
	}
	return s.applicant, nil
}

func (s *applicantReaderStub) ListWorkflow(ctx context.Context, personnelCode string) ([]models.WorkflowEntry, error) {
	return s.workflow, nil
}

func (s *applicantReaderStub) ListStatusLog(ctx context.Context, personnelCode string) ([]models.StatusLogEntry, error) {
	return s.statusLog, nil
}

func newQueueService(store *queueStoreStub, years *yearStub, applicants *applicantReaderStub, scope *scopeStub) *QueueService {
	catalog := &catalogStub{entries: map[string]models.TransferReason{
		"r-1": {ID: "r-1", Code: "MEDICAL", Title: "Medical condition", RequiresDocument: true},
	}}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	return NewQueueService(store, catalog, years, applicants, scope, nil, signer, &auditStub{}, time.Minute, nil)
}

func TestQueueServiceListJoinsReasonsAndApplicantState(t *testing.T) {
	status := models.StatusSourceReview
	years := 12
	store := &queueStoreStub{
		rows: []repository.QueueRow{
			{
				AppealRequest:        *testAppeal(),
				CurrentRequestStatus: &status,
				EffectiveYears:       &years,
			},
		},
		reasons: []models.SelectedReason{{AppealID: "ap-1", ReasonID: "r-1", Position: 1}},
	}
	svc := newQueueService(store, &yearStub{year: &models.AcademicYear{Year: "1403", IsActive: true}}, &applicantReaderStub{}, &scopeStub{scope: districtScope()})

	res, err := svc.List(context.Background(), districtActor())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.RoleDistrictExpert, res.UserRole)
	assert.Equal(t, "1403", store.lastYear)
	assert.Equal(t, districtScope(), store.lastScope)

	require.Len(t, res.Requests, 1)
	view := res.Requests[0]
	assert.Equal(t, "ap-1", view.ID)
	require.NotNil(t, view.CurrentRequestStatus)
	assert.Equal(t, models.StatusSourceReview, *view.CurrentRequestStatus)
	require.Len(t, view.SelectedReasons, 1)
	assert.Equal(t, "Medical condition", view.SelectedReasons[0].Title)
	assert.True(t, view.SelectedReasons[0].RequiresDocument)
	assert.Nil(t, view.SelectedReasons[0].Review)
	assert.Nil(t, view.EligibilityDecision)
}

func TestQueueServiceListWithoutActiveYearDropsFilter(t *testing.T) {
	store := &queueStoreStub{}
	svc := newQueueService(store, &yearStub{}, &applicantReaderStub{}, &scopeStub{scope: districtScope()})

	res, err := svc.List(context.Background(), districtActor())
	require.NoError(t, err)
	assert.Equal(t, "", store.lastYear)
	assert.NotNil(t, res.Requests)
	assert.Empty(t, res.Requests)
}

func TestQueueServiceListPropagatesScopeError(t *testing.T) {
	svc := newQueueService(&queueStoreStub{}, &yearStub{}, &applicantReaderStub{}, &scopeStub{err: appErrors.ErrScopeNotFound})

	_, err := svc.List(context.Background(), districtActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScopeNotFound.Code, appErrors.FromError(err).Code)
}

func TestQueueServiceGetBuildsDetail(t *testing.T) {
	store := &queueStoreStub{
		appeal:    testAppeal(),
		reasons:   []models.SelectedReason{{AppealID: "ap-1", ReasonID: "r-1", Position: 1}},
		documents: []models.AppealDocument{{AppealID: "ap-1", Slot: "medical_certificate", FileRef: "ap-1/medical.pdf"}},
		messages:  []models.AppealMessage{{ID: "m-1", AppealID: "ap-1", SenderName: "Clerk", Body: "uploaded"}},
	}
	applicants := &applicantReaderStub{
		applicant: &models.TransferApplicant{PersonnelCode: "PC-9", CurrentRequestStatus: models.StatusSourceReview, EffectiveYears: 8},
		workflow:  []models.WorkflowEntry{{ID: "w-1", Status: models.StatusSourceReview}},
		statusLog: []models.StatusLogEntry{{ID: "l-1", ToStatus: models.StatusSourceReview}},
	}
	svc := newQueueService(store, &yearStub{}, applicants, &scopeStub{scope: districtScope()})

	detail, err := svc.Get(context.Background(), "ap-1", districtActor())
	require.NoError(t, err)

	require.NotNil(t, detail.CurrentRequestStatus)
	assert.Equal(t, models.StatusSourceReview, *detail.CurrentRequestStatus)
	require.Len(t, detail.Documents, 1)
	assert.Equal(t, "medical_certificate", detail.Documents[0].Slot)
	assert.True(t, strings.HasPrefix(detail.Documents[0].URL, "/appeals/documents/"))
	require.Len(t, detail.Messages, 1)
	require.Len(t, detail.Workflow, 1)
	require.Len(t, detail.StatusLog, 1)
}

func TestQueueServiceGetOutsideScope(t *testing.T) {
	store := &queueStoreStub{appeal: testAppeal()}
	svc := newQueueService(store, &yearStub{}, &applicantReaderStub{}, &scopeStub{
		scope: models.GeographicScope{Type: models.ScopeProvince, Code: "P-99"},
	})

	_, err := svc.Get(context.Background(), "ap-1", districtActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestQueueServiceExportCSV(t *testing.T) {
	status := models.StatusSourceReview
	store := &queueStoreStub{
		rows: []repository.QueueRow{{AppealRequest: *testAppeal(), CurrentRequestStatus: &status}},
	}
	svc := newQueueService(store, &yearStub{}, &applicantReaderStub{}, &scopeStub{scope: districtScope()})

	result, err := svc.Export(context.Background(), districtActor(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.FileName, ".csv"))

	body := string(result.Content)
	assert.Contains(t, body, "Personnel Code")
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "source_review")
}

func TestQueueServiceExportRejectsUnknownFormat(t *testing.T) {
	svc := newQueueService(&queueStoreStub{}, &yearStub{}, &applicantReaderStub{}, &scopeStub{scope: districtScope()})

	_, err := svc.Export(context.Background(), districtActor(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
