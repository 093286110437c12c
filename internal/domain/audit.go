package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionAdminOverride   = "admin_override"
	AuditActionContactCustomer = "contact_customer"
	AuditActionHoldExtended    = "hold_extended"
	AuditActionSeatOverride    = "seat_override"
)

type AuditEntry struct {
	ID        uuid.UUID
	BookingID int64
	Action    string
	Reason    string
	ActorID   string
	ActorRole Role
	CreatedAt time.Time
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCSA      Role = "csa"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCSA, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

type Actor struct {
	ID   string
	Role Role
}

// Staff reports whether the actor may act on bookings it does not own.
func (a Actor) Staff() bool {
	return a.Role == RoleCSA || a.Role == RoleAdmin || a.Role == RoleSystem
}

var SystemActor = Actor{ID: "system", Role: RoleSystem}
