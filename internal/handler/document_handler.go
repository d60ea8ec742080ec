package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimarzv/transfer-review-api/internal/service"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
	"github.com/nimarzv/transfer-review-api/pkg/response"
)

// DocumentHandler streams appeal documents behind signed links.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Download godoc
// @Summary Download an appeal document
// @Description The token embeds the appeal, file path, and expiry
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appeals/documents/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token is required"))
		return
	}

	file, name, err := h.service.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat document"))
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
