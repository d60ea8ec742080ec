package models

import "time"

// UserRole represents the available roles for the RBAC system. The two
// expert roles are the only ones allowed past the review authorization
// boundary; admin exists for catalog and account management.
type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleDistrictExpert UserRole = "districtTransferExpert"
	RoleProvinceExpert UserRole = "provinceTransferExpert"
)

// IsTransferExpert reports whether the role may review appeals at all.
func (r UserRole) IsTransferExpert() bool {
	return r == RoleDistrictExpert || r == RoleProvinceExpert
}

// User represents an application user stored in the users table. District
// and Province hold either a denormalized geographic code or a bare catalog
// reference; the scope resolver normalizes them.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	District     string     `db:"district" json:"district,omitempty"`
	Province     string     `db:"province" json:"province,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
