package types

// Address is a shipping destination. ID 0 is reserved for the
// profile-derived default address; user-added entries get positive IDs.
type Address struct {
	ID         int64  `json:"id"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// IsProfileDefault reports whether the address is the one derived from
// the user profile.
func (a Address) IsProfileDefault() bool {
	return a.ID == 0
}
