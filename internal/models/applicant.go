package models

import "time"

// RequestStatus is the live state of an applicant's transfer process.
// Earlier states originate from the intake flow; only the three below are
// owned by the review engine.
type RequestStatus string

const (
	StatusSourceReview         RequestStatus = "source_review"
	StatusEligibilityApproval  RequestStatus = "exception_eligibility_approval"
	StatusEligibilityRejection RequestStatus = "exception_eligibility_rejection"
)

// TransferApplicant is the authoritative per-personnel-code record,
// independent of any single appeal. CurrentWorkplaceCode reflects where the
// applicant works today and may diverge from an appeal's filing snapshot.
type TransferApplicant struct {
	PersonnelCode        string        `db:"personnel_code" json:"personnelCode"`
	CurrentRequestStatus RequestStatus `db:"current_request_status" json:"currentRequestStatus"`
	CurrentWorkplaceCode string        `db:"current_workplace_code" json:"currentWorkplaceCode"`
	EffectiveYears       int           `db:"effective_years" json:"effectiveYears"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updatedAt"`
}

// WorkflowEntry is one row of the append-only requestStatusWorkflow trail.
type WorkflowEntry struct {
	ID             string        `db:"id" json:"id"`
	PersonnelCode  string        `db:"personnel_code" json:"-"`
	Status         RequestStatus `db:"status" json:"status"`
	ChangedBy      string        `db:"changed_by" json:"changedBy"`
	ChangedAt      time.Time     `db:"changed_at" json:"changedAt"`
	PreviousStatus RequestStatus `db:"previous_status" json:"previousStatus"`
	Reason         string        `db:"reason" json:"reason"`
	Metadata       []byte        `db:"metadata" json:"metadata,omitempty"`
}

// StatusLogEntry is one row of the append-only statusLog trail. Both trails
// grow by exactly one entry per transition.
type StatusLogEntry struct {
	ID            string        `db:"id" json:"id"`
	PersonnelCode string        `db:"personnel_code" json:"-"`
	FromStatus    RequestStatus `db:"from_status" json:"fromStatus"`
	ToStatus      RequestStatus `db:"to_status" json:"toStatus"`
	ActionType    string        `db:"action_type" json:"actionType"`
	PerformedBy   string        `db:"performed_by" json:"performedBy"`
	PerformedAt   time.Time     `db:"performed_at" json:"performedAt"`
	Comment       string        `db:"comment" json:"comment,omitempty"`
	Metadata      []byte        `db:"metadata" json:"metadata,omitempty"`
}

// Action types recorded on status log entries.
const (
	ActionSourceReview       = "SOURCE_REVIEW"
	ActionEligibilityApprove = "ELIGIBILITY_APPROVE"
	ActionEligibilityReject  = "ELIGIBILITY_REJECT"
)
