package models

import "time"

// ReviewStatus captures the verdict recorded against a single appeal reason.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// OverallReviewStatus tracks how far an appeal has progressed through review.
type OverallReviewStatus string

const (
	OverallReviewNotStarted OverallReviewStatus = "not_started"
	OverallReviewInReview   OverallReviewStatus = "in_review"
	OverallReviewCompleted  OverallReviewStatus = "completed"
)

// DecisionValue is the terminal verdict on an appeal as a whole.
type DecisionValue string

const (
	DecisionApproved DecisionValue = "approved"
	DecisionRejected DecisionValue = "rejected"
)

// AppealRequest is one applicant's exception-transfer appeal. The district
// and province codes are a snapshot taken at filing time and may diverge
// from the applicant's current workplace.
type AppealRequest struct {
	ID                  string              `db:"id" json:"id"`
	FullName            string              `db:"full_name" json:"fullName"`
	NationalID          string              `db:"national_id" json:"nationalId"`
	PersonnelCode       string              `db:"personnel_code" json:"personnelCode"`
	Phone               string              `db:"phone" json:"phone"`
	AcademicYear        string              `db:"academic_year" json:"academicYear"`
	DistrictCode        string              `db:"district_code" json:"districtCode"`
	ProvinceCode        string              `db:"province_code" json:"provinceCode"`
	OverallReviewStatus OverallReviewStatus `db:"overall_review_status" json:"overallReviewStatus"`
	ReviewedBy          *string             `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time          `db:"reviewed_at" json:"reviewedAt,omitempty"`
	Decision            *DecisionValue      `db:"decision" json:"-"`
	DecidedBy           *string             `db:"decided_by" json:"-"`
	DecidedAt           *time.Time          `db:"decided_at" json:"-"`
	DecisionComment     *string             `db:"decision_comment" json:"-"`
	DeciderRole         *string             `db:"decider_role" json:"-"`
	CreatedAt           time.Time           `db:"created_at" json:"createdAt"`
}

// EligibilityDecision assembles the nullable terminal verdict block.
// It returns nil until a final decision has been recorded.
func (a *AppealRequest) EligibilityDecision() *EligibilityDecision {
	if a == nil || a.Decision == nil {
		return nil
	}
	d := &EligibilityDecision{Decision: *a.Decision}
	if a.DecidedBy != nil {
		d.DecidedBy = *a.DecidedBy
	}
	if a.DecidedAt != nil {
		d.DecidedAt = *a.DecidedAt
	}
	if a.DecisionComment != nil {
		d.Comment = *a.DecisionComment
	}
	if a.DeciderRole != nil {
		d.DeciderRole = *a.DeciderRole
	}
	return d
}

// EligibilityDecision is the terminal approve/reject verdict on an appeal.
type EligibilityDecision struct {
	Decision    DecisionValue `json:"decision"`
	DecidedBy   string        `json:"decidedBy"`
	DecidedAt   time.Time     `json:"decidedAt"`
	Comment     string        `json:"comment,omitempty"`
	DeciderRole string        `json:"deciderRole"`
}

// SelectedReason is one entry of an appeal's ordered reason list. The review
// block is null until an expert records a verdict or comment against it.
type SelectedReason struct {
	ID                   string        `db:"id" json:"-"`
	AppealID             string        `db:"appeal_id" json:"-"`
	ReasonID             string        `db:"reason_id" json:"reasonId"`
	Position             int           `db:"position" json:"-"`
	ReviewStatus         *ReviewStatus `db:"review_status" json:"-"`
	ReviewedBy           *string       `db:"reviewed_by" json:"-"`
	ReviewedAt           *time.Time    `db:"reviewed_at" json:"-"`
	ExpertComment        *string       `db:"expert_comment" json:"-"`
	ReviewerRole         *string       `db:"reviewer_role" json:"-"`
	ReviewerLocationCode *string       `db:"reviewer_location_code" json:"-"`
	Metadata             []byte        `db:"metadata" json:"-"`
}

// Review assembles the nullable review block for serialization.
func (r *SelectedReason) Review() *ReasonReview {
	if r == nil || r.ReviewStatus == nil {
		return nil
	}
	review := &ReasonReview{Status: *r.ReviewStatus, Metadata: r.Metadata}
	if r.ReviewedBy != nil {
		review.ReviewedBy = *r.ReviewedBy
	}
	if r.ReviewedAt != nil {
		review.ReviewedAt = *r.ReviewedAt
	}
	if r.ExpertComment != nil {
		review.ExpertComment = *r.ExpertComment
	}
	if r.ReviewerRole != nil {
		review.ReviewerRole = *r.ReviewerRole
	}
	if r.ReviewerLocationCode != nil {
		review.ReviewerLocationCode = *r.ReviewerLocationCode
	}
	return review
}

// ReasonReview is the per-reason verdict recorded by an expert.
type ReasonReview struct {
	Status               ReviewStatus   `json:"status"`
	ReviewedBy           string         `json:"reviewedBy"`
	ReviewedAt           time.Time      `json:"reviewedAt"`
	ExpertComment        string         `json:"expertComment,omitempty"`
	ReviewerRole         string         `json:"reviewerRole"`
	ReviewerLocationCode string         `json:"reviewerLocationCode"`
	Metadata             JSONRawOrEmpty `json:"metadata,omitempty"`
}

// JSONRawOrEmpty marshals stored jsonb bytes verbatim, or as null when empty.
type JSONRawOrEmpty []byte

// MarshalJSON implements json.Marshaler.
func (j JSONRawOrEmpty) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// AppealDocument maps a document slot to its stored file reference.
type AppealDocument struct {
	AppealID string `db:"appeal_id" json:"-"`
	Slot     string `db:"slot" json:"slot"`
	FileRef  string `db:"file_ref" json:"fileRef"`
}

// AppealMessage is one entry of the appeal's discussion thread. SenderName
// is joined from the users table for display and never persisted here.
type AppealMessage struct {
	ID         string    `db:"id" json:"id"`
	AppealID   string    `db:"appeal_id" json:"-"`
	SenderID   string    `db:"sender_id" json:"-"`
	SenderName string    `db:"sender_name" json:"senderName"`
	Body       string    `db:"body" json:"body"`
	SentAt     time.Time `db:"sent_at" json:"sentAt"`
}
