package models

import "time"

// TransferReason is read-only catalog metadata for an appeal reason.
type TransferReason struct {
	ID                       string    `db:"id" json:"id"`
	Code                     string    `db:"code" json:"code"`
	Title                    string    `db:"title" json:"title"`
	RequiresDocument         bool      `db:"requires_document" json:"requiresDocument"`
	RequiresProvinceApproval bool      `db:"requires_province_approval" json:"requiresProvinceApproval"`
	Active                   bool      `db:"active" json:"active"`
	CreatedAt                time.Time `db:"created_at" json:"createdAt"`
}
