package staff

import "github.com/BruksfildServices01/barber-manager/internal/httperr"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleBarber       Role = "barber"
	RoleReceptionist Role = "receptionist"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleBarber, RoleReceptionist:
		return Role(s), nil
	}
	return "", httperr.ErrBusiness("invalid_role")
}

// ManagesShop reports whether the role can act on other barbers' agenda,
// commands and cash register.
func (r Role) ManagesShop() bool {
	switch r {
	case RoleAdmin, RoleReceptionist:
		return true
	}
	return false
}

// Actor is the authenticated user behind a request.
type Actor struct {
	UserID       uint
	BarbershopID uint
	Role         Role
}

// CanActFor reports whether the actor may touch data owned by barberID.
func (a Actor) CanActFor(barberID uint) bool {
	return a.Role.ManagesShop() || a.UserID == barberID
}
