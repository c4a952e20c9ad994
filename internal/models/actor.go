package models

import "github.com/google/uuid"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanReview reports whether the actor may approve or reject submissions
// against t: the task's buyer or an admin.
func (a Actor) CanReview(t *Task) bool {
	if t == nil {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleBuyer:
		return a.ID == t.BuyerID
	}
	return false
}

// CanManageTask reports whether the actor may change t's status.
func (a Actor) CanManageTask(t *Task) bool { return a.CanReview(t) }

// CanManagePayouts reports whether the actor may review withdrawals.
func (a Actor) CanManagePayouts() bool { return a.Role == RoleAdmin }
