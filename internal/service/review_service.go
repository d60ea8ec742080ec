package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nimarzv/transfer-review-api/internal/dto"
	"github.com/nimarzv/transfer-review-api/internal/models"
	"github.com/nimarzv/transfer-review-api/internal/repository"
	appErrors "github.com/nimarzv/transfer-review-api/pkg/errors"
)

type reviewStore interface {
	GetByID(ctx context.Context, id string) (*models.AppealRequest, error)
	ListReasons(ctx context.Context, appealID string) ([]models.SelectedReason, error)
	UpdateReasonReview(ctx context.Context, params repository.ReasonReviewParams) error
	MarkInReview(ctx context.Context, appealID, reviewerID string, at time.Time) error
	RecordDecision(ctx context.Context, params repository.DecisionParams) error
}

type applicantTransitioner interface {
	Transition(ctx context.Context, params repository.TransitionParams) (*repository.TransitionResult, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ReviewService records per-reason review verdicts and final eligibility
// decisions, moving the applicant state machine alongside. Appeal writes and
// applicant transitions are separate commits; a transition failure after the
// reviews landed surfaces as an error without rolling the reviews back.
type ReviewService struct {
	appeals    reviewStore
	applicants applicantTransitioner
	scope      scopeResolver
	cache      *CacheService
	audit      auditLogger
	reasons    reasonCatalog
	logger     *zap.Logger
	now        func() time.Time
}

// NewReviewService constructs the service.
func NewReviewService(appeals reviewStore, applicants applicantTransitioner, scope scopeResolver, reasons reasonCatalog, cache *CacheService, audit auditLogger, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		appeals:    appeals,
		applicants: applicants,
		scope:      scope,
		cache:      cache,
		audit:      audit,
		reasons:    reasons,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ApplyReview writes the submitted per-reason verdicts onto the appeal.
// Entries that name a reason the appeal never selected, or that carry
// neither a status nor a comment, are ignored. When at least one reason was
// touched the appeal moves to in-review and the applicant is nudged into
// source_review unless already there.
func (s *ReviewService) ApplyReview(ctx context.Context, req dto.ApplyReviewRequest, actor *models.JWTClaims) (*dto.ApplyReviewResult, error) {
	if strings.TrimSpace(req.RequestID) == "" || len(req.Reviews) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requestId and reviews are required")
	}

	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	appeal, err := s.loadAppeal(ctx, req.RequestID, scope)
	if err != nil {
		return nil, err
	}

	reasons, err := s.appeals.ListReasons(ctx, appeal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal reasons")
	}

	inputs := make(map[string]dto.ReasonReviewInput, len(req.Reviews))
	for _, input := range req.Reviews {
		inputs[input.ReasonID] = input
	}

	now := s.now()
	applied := 0
	for i := range reasons {
		reason := &reasons[i]
		input, ok := inputs[reason.ReasonID]
		if !ok {
			continue
		}

		status, comment, touched := normalizeReviewInput(input, reason)
		if !touched {
			continue
		}

		params := repository.ReasonReviewParams{
			AppealID:             appeal.ID,
			ReasonID:             reason.ReasonID,
			Status:               status,
			ReviewedBy:           actor.UserID,
			ReviewedAt:           now,
			ReviewerRole:         string(actor.Role),
			ReviewerLocationCode: scope.Code,
			Metadata:             reviewMetadata(input),
		}
		if comment != "" {
			params.ExpertComment = &comment
		}
		if err := s.appeals.UpdateReasonReview(ctx, params); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("reason vanished during review", zap.String("appealId", appeal.ID), zap.String("reasonId", reason.ReasonID))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record reason review")
		}

		reason.ReviewStatus = &status
		reason.ReviewedBy = &actor.UserID
		reason.ReviewedAt = &now
		if comment != "" {
			reason.ExpertComment = &comment
		}
		role := string(actor.Role)
		reason.ReviewerRole = &role
		reason.ReviewerLocationCode = &scope.Code
		reason.Metadata = params.Metadata
		applied++
	}

	if applied > 0 {
		if err := s.appeals.MarkInReview(ctx, appeal.ID, actor.UserID, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark appeal in review")
		}
		appeal.OverallReviewStatus = models.OverallReviewInReview

		if err := s.nudgeSourceReview(ctx, appeal, actor, applied); err != nil {
			return nil, err
		}
		s.invalidateQueue(ctx, appeal)
	}

	catalog, err := s.catalogFor(ctx, reasons)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionReviewApply,
		Resource:   "appeal_request",
		ResourceID: &appeal.ID,
		NewValues:  []byte(fmt.Sprintf(`{"reviewsApplied":%d}`, applied)),
	})

	return &dto.ApplyReviewResult{
		ID:                  appeal.ID,
		OverallReviewStatus: appeal.OverallReviewStatus,
		ReviewsApplied:      applied,
		SelectedReasons:     buildReasonViews(reasons, catalog),
	}, nil
}

// Decide records the terminal approve/reject verdict and moves the
// applicant to the matching eligibility status. Unlike the review nudge,
// repeating a decision re-fires the transition and re-logs it.
func (s *ReviewService) Decide(ctx context.Context, req dto.DecisionRequest, actor *models.JWTClaims) (*dto.DecisionResult, error) {
	if strings.TrimSpace(req.RequestID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requestId is required")
	}

	var decision models.DecisionValue
	var newStatus models.RequestStatus
	var actionType string
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case dto.DecisionActionApprove:
		decision = models.DecisionApproved
		newStatus = models.StatusEligibilityApproval
		actionType = models.ActionEligibilityApprove
	case dto.DecisionActionReject:
		decision = models.DecisionRejected
		newStatus = models.StatusEligibilityRejection
		actionType = models.ActionEligibilityReject
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidAction, "action must be approve or reject")
	}

	scope, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	appeal, err := s.loadAppeal(ctx, req.RequestID, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	params := repository.DecisionParams{
		AppealID:    appeal.ID,
		Decision:    decision,
		DecidedBy:   actor.UserID,
		DecidedAt:   now,
		DeciderRole: string(actor.Role),
	}
	comment := strings.TrimSpace(req.Comment)
	if comment != "" {
		params.Comment = &comment
	}
	if err := s.appeals.RecordDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appeal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record eligibility decision")
	}

	appeal.Decision = &decision
	appeal.DecidedBy = &actor.UserID
	appeal.DecidedAt = &now
	appeal.DecisionComment = params.Comment
	role := string(actor.Role)
	appeal.DeciderRole = &role
	appeal.OverallReviewStatus = models.OverallReviewCompleted

	metadata, _ := json.Marshal(map[string]string{
		"appealId": appeal.ID,
		"decision": string(decision),
	})
	_, err = s.applicants.Transition(ctx, repository.TransitionParams{
		PersonnelCode: appeal.PersonnelCode,
		NewStatus:     newStatus,
		ActionType:    actionType,
		PerformedBy:   actor.UserID,
		Reason:        fmt.Sprintf("eligibility decision: %s", decision),
		Comment:       comment,
		Metadata:      metadata,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no applicant record for decided appeal",
				zap.String("appealId", appeal.ID),
				zap.String("personnelCode", appeal.PersonnelCode))
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition applicant status")
		}
	}
	s.invalidateQueue(ctx, appeal)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionDecisionRecord,
		Resource:   "appeal_request",
		ResourceID: &appeal.ID,
		NewValues:  []byte(fmt.Sprintf(`{"decision":%q}`, decision)),
	})

	return &dto.DecisionResult{
		ID:                  appeal.ID,
		EligibilityDecision: appeal.EligibilityDecision(),
		NewRequestStatus:    newStatus,
	}, nil
}

// loadAppeal fetches the appeal and enforces the actor's scope against the
// filing snapshot before any write happens.
func (s *ReviewService) loadAppeal(ctx context.Context, id string, scope models.GeographicScope) (*models.AppealRequest, error) {
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
	return appeal, nil
}

// nudgeSourceReview moves the applicant into source_review unless already
// there. A missing applicant record is logged and skipped; the reviews on
// the appeal stand on their own.
func (s *ReviewService) nudgeSourceReview(ctx context.Context, appeal *models.AppealRequest, actor *models.JWTClaims, applied int) error {
	metadata, _ := json.Marshal(map[string]interface{}{
		"appealId":       appeal.ID,
		"reviewsApplied": applied,
	})
	_, err := s.applicants.Transition(ctx, repository.TransitionParams{
		PersonnelCode: appeal.PersonnelCode,
		NewStatus:     models.StatusSourceReview,
		SkipIfCurrent: true,
		ActionType:    models.ActionSourceReview,
		PerformedBy:   actor.UserID,
		Reason:        "appeal reasons under review",
		Metadata:      metadata,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no applicant record for reviewed appeal",
				zap.String("appealId", appeal.ID),
				zap.String("personnelCode", appeal.PersonnelCode))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition applicant status")
	}
	return nil
}

func (s *ReviewService) catalogFor(ctx context.Context, reasons []models.SelectedReason) (map[string]models.TransferReason, error) {
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

func (s *ReviewService) invalidateQueue(ctx context.Context, appeal *models.AppealRequest) {
	if !s.cache.Enabled() {
		return
	}
	patterns := []string{
		fmt.Sprintf("review:queue:%s:%s:*", models.ScopeDistrict, appeal.DistrictCode),
		fmt.Sprintf("review:queue:%s:%s:*", models.ScopeProvince, appeal.ProvinceCode),
	}
	for _, pattern := range patterns {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("failed to invalidate queue cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func (s *ReviewService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "review-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// normalizeReviewInput resolves the effective status and comment for one
// submitted entry. Entries without an explicit status keep the previously
// recorded one, or start at pending; entries with neither a recognized
// status nor a non-empty comment leave the reason untouched.
func normalizeReviewInput(input dto.ReasonReviewInput, reason *models.SelectedReason) (models.ReviewStatus, string, bool) {
	comment := strings.TrimSpace(input.Comment)

	switch models.ReviewStatus(strings.ToLower(strings.TrimSpace(input.Status))) {
	case models.ReviewStatusApproved:
		return models.ReviewStatusApproved, comment, true
	case models.ReviewStatusRejected:
		return models.ReviewStatusRejected, comment, true
	}

	if comment == "" {
		return "", "", false
	}
	if reason.ReviewStatus != nil {
		return *reason.ReviewStatus, comment, true
	}
	return models.ReviewStatusPending, comment, true
}

// reviewMetadata snapshots the raw submission entry alongside the review.
func reviewMetadata(input dto.ReasonReviewInput) []byte {
	metadata, err := json.Marshal(input)
	if err != nil {
		return []byte("{}")
	}
	return metadata
}
