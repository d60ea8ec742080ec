package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/pkg/response"
)

type reasonLister interface {
	ListActive(ctx context.Context) ([]models.TransferReason, error)
}

// ReasonHandler serves the transfer reason catalog.
type ReasonHandler struct {
	service reasonLister
}

// NewReasonHandler constructs the handler.
func NewReasonHandler(service reasonLister) *ReasonHandler {
	return &ReasonHandler{service: service}
}

// List godoc
// @Summary List active transfer reasons
// @Tags Reasons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reasons [get]
func (h *ReasonHandler) List(c *gin.Context) {
	reasons, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", reasons)
}
