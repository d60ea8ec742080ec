package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimarzv/transfer-review-api/internal/dto"
	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/service"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
	"github.com/nimarzv/transfer-review-api/pkg/response"
)

type queueLister interface {
	List(ctx context.Context, actor *models.JWTClaims) (*dto.QueueResponse, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AppealDetail, error)
	Export(ctx context.Context, actor *models.JWTClaims, format string) (*service.QueueExport, error)
}

type reviewRecorder interface {
	ApplyReview(ctx context.Context, req dto.ApplyReviewRequest, actor *models.JWTClaims) (*dto.ApplyReviewResult, error)
	Decide(ctx context.Context, req dto.DecisionRequest, actor *models.JWTClaims) (*dto.DecisionResult, error)
}

// ReviewHandler exposes the appeal review endpoints.
type ReviewHandler struct {
	queue  queueLister
	review reviewRecorder
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(queue queueLister, review reviewRecorder) *ReviewHandler {
	return &ReviewHandler{queue: queue, review: review}
}

// List godoc
// @Summary List the review queue
// @Description Appeals awaiting review inside the caller's geographic scope
// @Tags Review
// @Produce json
// @Success 200 {object} dto.QueueResponse
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appeals [get]
func (h *ReviewHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.queue.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, res)
}

// Get godoc
// @Summary Appeal detail
// @Tags Review
// @Produce json
// @Param id path string true "Appeal ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appeals/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.queue.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", detail)
}

// ApplyReview godoc
// @Summary Record per-reason review verdicts
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.ApplyReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appeals/review [post]
func (h *ReviewHandler) ApplyReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ApplyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	result, err := h.review.ApplyReview(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "reviews recorded", result)
}

// Decide godoc
// @Summary Record the final eligibility decision
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appeals/decision [post]
func (h *ReviewHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	result, err := h.review.Decide(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "eligibility decision recorded", result)
}

// Export godoc
// @Summary Export the review queue
// @Tags Review
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appeals/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.queue.Export(c.Request.Context(), claims, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
