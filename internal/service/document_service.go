package service

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nimarzv/transfer-review-api/internal/models"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
	"github.com/nimarzv/transfer-review-api/pkg/storage"
)

// DocumentService streams stored appeal documents behind signed links. The
// token is the only authorization: it embeds the owning appeal and the
// stored path, so expired or tampered links never reach the filesystem.
type DocumentService struct {
	signer *storage.SignedURLSigner
	files  *storage.LocalStorage
	audit  auditLogger
	logger *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(signer *storage.SignedURLSigner, files *storage.LocalStorage, audit auditLogger, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{signer: signer, files: files, audit: audit, logger: logger}
}

// Open validates the signed token and returns a read handle plus the
// download filename.
func (s *DocumentService) Open(ctx context.Context, token string) (*os.File, string, error) {
	appealID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired document link")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}

	s.emitAudit(ctx, appealID, relPath)
	return file, filepath.Base(relPath), nil
}

func (s *DocumentService) emitAudit(ctx context.Context, appealID, relPath string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     models.AuditActionDocumentAccess,
		Resource:   "appeal_document",
		ResourceID: &appealID,
		NewValues:  []byte(`{"path":"` + relPath + `"}`),
		IPAddress:  "system",
		UserAgent:  "document-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
