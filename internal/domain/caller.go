package domain

import "github.com/google/uuid"

// Caller is the authenticated identity attached to a request by the
// identity provider.
type Caller struct {
	UserID  uuid.UUID
	IsStaff bool
}

// CanSee reports whether the caller may view a resource owned by ownerID.
func (c Caller) CanSee(ownerID uuid.UUID) bool {
	return c.IsStaff || c.UserID == ownerID
}
