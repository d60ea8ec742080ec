package dto

import (
	"time"

	"github.com/nimarzv/transfer-review-api/internal/models"
)

// ReasonReviewInput is one entry of a review submission. Status and Comment
// are both optional; an entry carrying neither is ignored.
type ReasonReviewInput struct {
	ReasonID string `json:"reasonId"`
	Status   string `json:"status,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// ApplyReviewRequest records per-reason verdicts against an appeal.
type ApplyReviewRequest struct {
	RequestID string              `json:"requestId"`
	Reviews   []ReasonReviewInput `json:"reviews"`
}

// DecisionRequest records the final eligibility verdict for an appeal.
type DecisionRequest struct {
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
	Comment   string `json:"comment,omitempty"`
}

// Decision actions accepted by the final eligibility endpoint.
const (
	DecisionActionApprove = "approve"
	DecisionActionReject  = "reject"
)

// ReasonView joins a selected reason with its catalog metadata and the
// review block recorded so far.
type ReasonView struct {
	ReasonID         string               `json:"reasonId"`
	Code             string               `json:"code,omitempty"`
	Title            string               `json:"title,omitempty"`
	RequiresDocument bool                 `json:"requiresDocument"`
	Review           *models.ReasonReview `json:"review"`
}

// DocumentLink is a time-limited download reference for one document slot.
type DocumentLink struct {
	Slot      string    `json:"slot"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AppealView is one entry of the review queue. The applicant fields are
// null when the personnel code has no matching applicant record.
type AppealView struct {
	ID                   string                      `json:"id"`
	FullName             string                      `json:"fullName"`
	NationalID           string                      `json:"nationalId"`
	PersonnelCode        string                      `json:"personnelCode"`
	Phone                string                      `json:"phone"`
	AcademicYear         string                      `json:"academicYear"`
	DistrictCode         string                      `json:"districtCode"`
	ProvinceCode         string                      `json:"provinceCode"`
	OverallReviewStatus  models.OverallReviewStatus  `json:"overallReviewStatus"`
	CurrentRequestStatus *models.RequestStatus       `json:"currentRequestStatus"`
	EffectiveYears       *int                        `json:"effectiveYears"`
	SelectedReasons      []ReasonView                `json:"selectedReasons"`
	EligibilityDecision  *models.EligibilityDecision `json:"eligibilityDecision"`
	CreatedAt            time.Time                   `json:"createdAt"`
}

// QueueResponse is the review queue listing payload.
type QueueResponse struct {
	Success  bool            `json:"success"`
	Requests []AppealView    `json:"requests"`
	UserRole models.UserRole `json:"userRole"`
}

// AppealDetail extends the queue view with documents, the message thread,
// and the applicant's audit trails.
type AppealDetail struct {
	AppealView
	Documents []DocumentLink          `json:"documents"`
	Messages  []models.AppealMessage  `json:"messages"`
	Workflow  []models.WorkflowEntry  `json:"workflow,omitempty"`
	StatusLog []models.StatusLogEntry `json:"statusLog,omitempty"`
}

// ApplyReviewResult reports the appeal state after a review submission.
type ApplyReviewResult struct {
	ID                  string                     `json:"id"`
	OverallReviewStatus models.OverallReviewStatus `json:"overallReviewStatus"`
	ReviewsApplied      int                        `json:"reviewsApplied"`
	SelectedReasons     []ReasonView               `json:"selectedReasons"`
}

// DecisionResult reports the appeal and applicant state after the final
// eligibility verdict.
type DecisionResult struct {
	ID                  string                      `json:"id"`
	EligibilityDecision *models.EligibilityDecision `json:"eligibilityDecision"`
	NewRequestStatus    models.RequestStatus        `json:"newStatus"`
}
