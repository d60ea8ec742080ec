package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimarzv/transfer-review-api/internal/dto"
	"github.com/nimarzv/transfer-review-api/internal/middleware"
	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/service"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
)

type queueServiceMock struct {
	listResp   *dto.QueueResponse
	listErr    error
	getResp    *dto.AppealDetail
	getErr     error
	exportResp *service.QueueExport
	exportErr  error
	lastFormat string
	listCalled bool
}

func (m *queueServiceMock) List(ctx context.Context, actor *models.JWTClaims) (*dto.QueueResponse, error) {
	m.listCalled = true
	return m.listResp, m.listErr
}

func (m *queueServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AppealDetail, error) {
	return m.getResp, m.getErr
}

func (m *queueServiceMock) Export(ctx context.Context, actor *models.JWTClaims, format string) (*service.QueueExport, error) {
	m.lastFormat = format
	return m.exportResp, m.exportErr
}

type reviewServiceMock struct {
	applyResp   *dto.ApplyReviewResult
	applyErr    error
	decideResp  *dto.DecisionResult
	decideErr   error
	lastApply   dto.ApplyReviewRequest
	applyCalled bool
}

func (m *reviewServiceMock) ApplyReview(ctx context.Context, req dto.ApplyReviewRequest, actor *models.JWTClaims) (*dto.ApplyReviewResult, error) {
	m.applyCalled = true
	m.lastApply = req
	return m.applyResp, m.applyErr
}

func (m *reviewServiceMock) Decide(ctx context.Context, req dto.DecisionRequest, actor *models.JWTClaims) (*dto.DecisionResult, error) {
	return m.decideResp, m.decideErr
}

func expertClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-1", Role: models.RoleDistrictExpert, District: "D-014"}
}

func TestReviewHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQueue := &queueServiceMock{
		listResp: &dto.QueueResponse{
			Success:  true,
			Requests: []dto.AppealView{{ID: "ap-1"}},
			UserRole: models.RoleDistrictExpert,
		},
	}
	handler := NewReviewHandler(mockQueue, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/appeals", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockQueue.listCalled)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "success")
	assert.Contains(t, body, "requests")
	assert.Contains(t, body, "userRole")
	assert.Equal(t, `"districtTransferExpert"`, string(body["userRole"]))
}

func TestReviewHandlerListMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&queueServiceMock{}, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/appeals", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&queueServiceMock{getErr: appErrors.ErrNotFound}, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/appeals/ghost", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewHandlerApplyReview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockReview := &reviewServiceMock{
		applyResp: &dto.ApplyReviewResult{ID: "ap-1", OverallReviewStatus: models.OverallReviewInReview, ReviewsApplied: 1},
	}
	handler := NewReviewHandler(&queueServiceMock{}, mockReview)

	payload, _ := json.Marshal(dto.ApplyReviewRequest{
		RequestID: "ap-1",
		Reviews:   []dto.ReasonReviewInput{{ReasonID: "r-1", Status: "approved"}},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appeals/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.ApplyReview(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockReview.applyCalled)
	assert.Equal(t, "ap-1", mockReview.lastApply.RequestID)
	assert.Contains(t, w.Body.String(), "reviews recorded")
}

func TestReviewHandlerApplyReviewInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&queueServiceMock{}, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appeals/review", bytes.NewBufferString(`{"requestId":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.ApplyReview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerDecide(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockReview := &reviewServiceMock{
		decideResp: &dto.DecisionResult{ID: "ap-1", NewRequestStatus: models.StatusEligibilityApproval},
	}
	handler := NewReviewHandler(&queueServiceMock{}, mockReview)

	payload, _ := json.Marshal(dto.DecisionRequest{RequestID: "ap-1", Action: "approve"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appeals/decision", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eligibility decision recorded")
	assert.Contains(t, w.Body.String(), "exception_eligibility_approval")
}

func TestReviewHandlerDecideServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&queueServiceMock{}, &reviewServiceMock{decideErr: appErrors.ErrForbidden})

	payload, _ := json.Marshal(dto.DecisionRequest{RequestID: "ap-1", Action: "reject"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appeals/decision", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.Decide(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQueue := &queueServiceMock{
		exportResp: &service.QueueExport{
			FileName:    "review-queue-D-014.csv",
			ContentType: "text/csv",
			Content:     []byte("ID,Full Name\n"),
		},
	}
	handler := NewReviewHandler(mockQueue, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/appeals/export?format=csv", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, expertClaims())

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockQueue.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "review-queue-D-014.csv")
}
