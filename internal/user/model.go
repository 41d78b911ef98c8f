package user

import "fmt"

// Role is the closed set of actor roles. The zero value is not a valid role.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleCafeOwner
	RoleChef
	RoleWaiter
	RoleCustomer
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleCafeOwner:
		return "CAFE_OWNER"
	case RoleChef:
		return "CHEF"
	case RoleWaiter:
		return "WAITER"
	case RoleCustomer:
		return "CUSTOMER"
	case RoleUnknown:
	}
	return "UNKNOWN"
}

// IsStaff reports whether the role works inside a cafe.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleCafeOwner, RoleChef, RoleWaiter:
		return true
	case RoleCustomer, RoleUnknown:
	}
	return false
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "ADMIN":
		return RoleAdmin, nil
	case "CAFE_OWNER":
		return RoleCafeOwner, nil
	case "CHEF":
		return RoleChef, nil
	case "WAITER":
		return RoleWaiter, nil
	case "CUSTOMER":
		return RoleCustomer, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) String() string {
	return fmt.Sprintf("%s#%d", a.Role, a.UserID)
}

type User struct {
	ID               int64
	Username         string
	Email            string
	Role             Role
	Active           bool
	EmailVerified    bool
	ProfileCompleted bool
}
