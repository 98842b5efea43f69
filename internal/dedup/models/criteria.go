package models

// SearchCriteria is the normalized input of a duplicate search. An empty
// string means the field is absent.
type SearchCriteria struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id,omitempty"`
}

// IsEmpty reports whether no field is present. Empty criteria never reach the
// record store.
func (c SearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Phone == "" && c.NationalID == ""
}

// Summary describes which fields are present without exposing their values.
// It is the only form of criteria that may be logged.
func (c SearchCriteria) Summary() map[string]bool {
	return map[string]bool{
		"name":        c.Name != "",
		"phone":       c.Phone != "",
		"national_id": c.NationalID != "",
	}
}
