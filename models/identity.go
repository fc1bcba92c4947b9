package models

// AuthenticatedIdentity is the verified caller of an operation.
type AuthenticatedIdentity struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

func (i AuthenticatedIdentity) IsGuest() bool {
	return i.Role == RoleGuest
}

func (i AuthenticatedIdentity) IsStaff() bool {
	return i.Role == RoleOwner || i.Role == RoleEmployee
}

func IsStaffRole(role string) bool {
	return role == RoleOwner || role == RoleEmployee
}
