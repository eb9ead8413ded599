package domain

// ID is used across domain entities.
type ID int64

// Role distinguishes travelers from guides.
type Role string

const (
	RoleTraveler Role = "traveler"
	RoleGuide    Role = "guide"
)

func (r Role) Valid() bool {
	return r == RoleTraveler || r == RoleGuide
}

// Actor carries the authenticated caller of an operation.
type Actor struct {
	UserID ID   `json:"userId"`
	Role   Role `json:"role"`
}
