package models

// ScopeType distinguishes the two review granularities.
type ScopeType string

const (
	ScopeDistrict ScopeType = "district"
	ScopeProvince ScopeType = "province"
)

// GeographicScope is the single authorization value produced at the
// boundary. Code bounds both queue visibility and write authorization.
type GeographicScope struct {
	Type ScopeType `json:"type"`
	Code string    `json:"code"`
}

// District is a reference catalog row. Lookups accept either the stable
// code or the internal id, so callers never branch on which one they hold.
type District struct {
	ID           string `db:"id" json:"id"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	ProvinceCode string `db:"province_code" json:"provinceCode"`
}

// Province is a reference catalog row.
type Province struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}
