package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nimarzv/transfer-review-api/internal/dto"
	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/repository"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
	"github.com/nimarzv/transfer-review-api/pkg/export"
	"github.com/nimarzv/transfer-review-api/pkg/storage"
)

type queueStore interface {
	ListQueue(ctx context.Context, scope models.GeographicScope, academicYear string) ([]repository.QueueRow, error)
	GetByID(ctx context.Context, id string) (*models.AppealRequest, error)
	ListReasons(ctx context.Context, appealID string) ([]models.SelectedReason, error)
	ListReasonsForAppeals(ctx context.Context, appealIDs []string) ([]models.SelectedReason, error)
	ListDocuments(ctx context.Context, appealID string) ([]models.AppealDocument, error)
	ListMessages(ctx context.Context, appealID string) ([]models.AppealMessage, error)
}

type reasonCatalog interface {
	ListActive(ctx context.Context) ([]models.TransferReason, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.TransferReason, error)
}

type academicYearStore interface {
	FindActive(ctx context.Context) (*models.AcademicYear, error)
}

type applicantReader interface {
	FindByPersonnelCode(ctx context.Context, personnelCode string) (*models.TransferApplicant, error)
	ListWorkflow(ctx context.Context, personnelCode string) ([]models.WorkflowEntry, error)
	ListStatusLog(ctx context.Context, personnelCode string) ([]models.StatusLogEntry, error)
}

type scopeResolver interface {
	Resolve(ctx context.Context, actor *models.JWTClaims) (models.GeographicScope, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats accepted by the queue export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// QueueExport is a rendered queue export ready to stream to the client.
type QueueExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// QueueService builds the geographically scoped review queue and its
// derived views: the appeal detail and the CSV/PDF exports.
type QueueService struct {
	appeals    queueStore
	reasons    reasonCatalog
	years      academicYearStore
	applicants applicantReader
	scope      scopeResolver
	cache      *CacheService
	signer     *storage.SignedURLSigner
	csv        csvRenderer
	pdf        pdfRenderer
	audit      auditLogger
	queueTTL   time.Duration
	logger     *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(appeals queueStore, reasons reasonCatalog, years academicYearStore, applicants applicantReader, scope scopeResolver, cache *CacheService, signer *storage.SignedURLSigner, audit auditLogger, queueTTL time.Duration, logger *zap.Logger) *QueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueTTL <= 0 {
		queueTTL = time.Minute
	}
	return &QueueService{
		appeals:    appeals,
		reasons:    reasons,
		years:      years,
		applicants: applicants,
		scope:      scope,
		cache:      cache,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		audit:      audit,
		queueTTL:   queueTTL,
		logger:     logger,
	}
}

// List returns the appeals awaiting review inside the actor's scope.
func (s *QueueService) List(ctx context.Context, actor *models.JWTClaims) (*dto.QueueResponse, error) {
	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	views, err := s.listViews(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &dto.QueueResponse{Success: true, Requests: views, UserRole: actor.Role}, nil
}

func (s *QueueService) listViews(ctx context.Context, scope models.GeographicScope) ([]dto.AppealView, error) {
	year := s.activeYear(ctx)
	cacheKey := fmt.Sprintf("review:queue:%s:%s:%s", scope.Type, scope.Code, year)

	var cached []dto.AppealView
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.appeals.ListQueue(ctx, scope, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list review queue")
	}

	views, err := s.project(ctx, rows)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, views, s.queueTTL); err != nil {
		s.logger.Warn("failed to cache review queue", zap.String("key", cacheKey), zap.Error(err))
	}
	return views, nil
}

// activeYear returns the active academic year, or the empty string when none
// is configured. The queue intentionally widens to all years in that case.
func (s *QueueService) activeYear(ctx context.Context) string {
	year, err := s.years.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("no active academic year, queue covers all years")
		} else {
			s.logger.Warn("failed to load active academic year", zap.Error(err))
		}
		return ""
	}
	return year.Year
}

func (s *QueueService) project(ctx context.Context, rows []repository.QueueRow) ([]dto.AppealView, error) {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	reasons, err := s.appeals.ListReasonsForAppeals(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal reasons")
	}

	byAppeal := make(map[string][]models.SelectedReason, len(rows))
	for _, reason := range reasons {
		byAppeal[reason.AppealID] = append(byAppeal[reason.AppealID], reason)
	}

	catalog, err := s.catalogFor(ctx, reasons)
	if err != nil {
		return nil, err
	}

	views := make([]dto.AppealView, 0, len(rows))
	for _, row := range rows {
		view := appealView(&row.AppealRequest, byAppeal[row.ID], catalog)
		view.CurrentRequestStatus = row.CurrentRequestStatus
		view.EffectiveYears = row.EffectiveYears
		views = append(views, view)
	}
	return views, nil
}

// catalogFor loads catalog metadata for every distinct reason referenced by
// the given selections.
func (s *QueueService) catalogFor(ctx context.Context, reasons []models.SelectedReason) (map[string]models.TransferReason, error) {
	seen := make(map[string]struct{}, len(reasons))
	ids := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		if _, ok := seen[reason.ReasonID]; ok {
			continue
		}
		seen[reason.ReasonID] = struct{}{}
		ids = append(ids, reason.ReasonID)
	}

	entries, err := s.reasons.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reason catalog")
	}

	catalog := make(map[string]models.TransferReason, len(entries))
	for _, entry := range entries {
		catalog[entry.ID] = entry
	}
	return catalog, nil
}

// Get returns a single appeal with documents, messages, and the applicant's
// audit trails, enforcing the actor's geographic scope.
func (s *QueueService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.AppealDetail, error) {
	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	appeal, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appeal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal request")
	}

	if !scopeCovers(scope, appeal) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appeal is outside the reviewer's scope")
	}

	reasons, err := s.appeals.ListReasons(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal reasons")
	}
	catalog, err := s.catalogFor(ctx, reasons)
	if err != nil {
		return nil, err
	}

	detail := &dto.AppealDetail{
		AppealView: appealView(appeal, reasons, catalog),
		Documents:  []dto.DocumentLink{},
		Messages:   []models.AppealMessage{},
	}

	if applicant, err := s.applicants.FindByPersonnelCode(ctx, appeal.PersonnelCode); err == nil {
		status := applicant.CurrentRequestStatus
		years := applicant.EffectiveYears
		detail.CurrentRequestStatus = &status
		detail.EffectiveYears = &years
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to load applicant record", zap.String("personnelCode", appeal.PersonnelCode), zap.Error(err))
	}

	docs, err := s.appeals.ListDocuments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal documents")
	}
	for _, doc := range docs {
		token, expiresAt, err := s.signer.Generate(appeal.ID, doc.FileRef)
		if err != nil {
			s.logger.Warn("failed to sign document link", zap.String("slot", doc.Slot), zap.Error(err))
			continue
		}
		detail.Documents = append(detail.Documents, dto.DocumentLink{
			Slot:      doc.Slot,
			URL:       fmt.Sprintf("/appeals/documents/%s", token),
			ExpiresAt: expiresAt,
		})
	}

	messages, err := s.appeals.ListMessages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal messages")
	}
	if messages != nil {
		detail.Messages = messages
	}

	if workflow, err := s.applicants.ListWorkflow(ctx, appeal.PersonnelCode); err == nil {
		detail.Workflow = workflow
	} else {
		s.logger.Warn("failed to load workflow trail", zap.String("personnelCode", appeal.PersonnelCode), zap.Error(err))
	}
	if statusLog, err := s.applicants.ListStatusLog(ctx, appeal.PersonnelCode); err == nil {
		detail.StatusLog = statusLog
	} else {
		s.logger.Warn("failed to load status log", zap.String("personnelCode", appeal.PersonnelCode), zap.Error(err))
	}

	return detail, nil
}

// Export renders the actor's current queue as CSV or PDF.
func (s *QueueService) Export(ctx context.Context, actor *models.JWTClaims, format string) (*QueueExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	views, err := s.listViews(ctx, scope)
	if err != nil {
		return nil, err
	}

	dataset := queueDataset(views)
	result := &QueueExport{
		FileName: fmt.Sprintf("review-queue-%s-%s.%s", scope.Code, time.Now().UTC().Format("20060102-150405"), format),
	}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Content, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Content, err = s.pdf.Render(dataset, "Appeal Review Queue")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render queue export")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:    &actor.UserID,
		Action:    models.AuditActionQueueExport,
		Resource:  "appeal_queue",
		NewValues: []byte(fmt.Sprintf(`{"scope":%q,"format":%q,"rows":%d}`, scope.Code, format, len(views))),
	})
	return result, nil
}

func (s *QueueService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "queue-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// scopeCovers reports whether the appeal falls inside the reviewer's scope.
// District scope matches the filing-time district snapshot; province scope
// matches the filing-time province.
func scopeCovers(scope models.GeographicScope, appeal *models.AppealRequest) bool {
	switch scope.Type {
	case models.ScopeDistrict:
		return appeal.DistrictCode == scope.Code
	case models.ScopeProvince:
		return appeal.ProvinceCode == scope.Code
	default:
		return false
	}
}

func appealView(appeal *models.AppealRequest, reasons []models.SelectedReason, catalog map[string]models.TransferReason) dto.AppealView {
	return dto.AppealView{
		ID:                  appeal.ID,
		FullName:            appeal.FullName,
		NationalID:          appeal.NationalID,
		PersonnelCode:       appeal.PersonnelCode,
		Phone:               appeal.Phone,
		AcademicYear:        appeal.AcademicYear,
		DistrictCode:        appeal.DistrictCode,
		ProvinceCode:        appeal.ProvinceCode,
		OverallReviewStatus: appeal.OverallReviewStatus,
		SelectedReasons:     buildReasonViews(reasons, catalog),
		EligibilityDecision: appeal.EligibilityDecision(),
		CreatedAt:           appeal.CreatedAt,
	}
}

// buildReasonViews joins selections with catalog metadata. Selections whose
// catalog entry has been retired still appear, with bare ids.
func buildReasonViews(reasons []models.SelectedReason, catalog map[string]models.TransferReason) []dto.ReasonView {
	views := make([]dto.ReasonView, 0, len(reasons))
	for i := range reasons {
		reason := &reasons[i]
		view := dto.ReasonView{
			ReasonID: reason.ReasonID,
			Review:   reason.Review(),
		}
		if entry, ok := catalog[reason.ReasonID]; ok {
			view.Code = entry.Code
			view.Title = entry.Title
			view.RequiresDocument = entry.RequiresDocument
		}
		views = append(views, view)
	}
	return views
}

func queueDataset(views []dto.AppealView) export.Dataset {
	headers := []string{"ID", "Full Name", "National ID", "Personnel Code", "Academic Year", "District", "Province", "Review Status", "Request Status", "Decision", "Filed At"}
	rows := make([]map[string]string, 0, len(views))
	for _, view := range views {
		row := map[string]string{
			"ID":             view.ID,
			"Full Name":      view.FullName,
			"National ID":    view.NationalID,
			"Personnel Code": view.PersonnelCode,
			"Academic Year":  view.AcademicYear,
			"District":       view.DistrictCode,
			"Province":       view.ProvinceCode,
			"Review Status":  string(view.OverallReviewStatus),
			"Filed At":       view.CreatedAt.Format(time.RFC3339),
		}
		if view.CurrentRequestStatus != nil {
			row["Request Status"] = string(*view.CurrentRequestStatus)
		}
		if view.EligibilityDecision != nil {
			row["Decision"] = string(view.EligibilityDecision.Decision)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
