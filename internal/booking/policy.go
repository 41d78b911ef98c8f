package booking

import "cafe-be/internal/user"

type action string

const (
	actionCreate   action = "create"
	actionConfirm  action = "confirm"
	actionCancel   action = "cancel"
	actionComplete action = "complete"
)

type transition struct {
	from []Status
	to   Status
}

var transitions = map[action]transition{
	actionConfirm:  {from: []Status{StatusPending}, to: StatusConfirmed},
	actionCancel:   {from: []Status{StatusPending, StatusConfirmed}, to: StatusCancelled},
	actionComplete: {from: []Status{StatusConfirmed}, to: StatusCompleted},
}

func (t transition) allows(s Status) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

func (t transition) expected() []string {
	out := make([]string, len(t.from))
	for i, s := range t.from {
		out[i] = string(s)
	}
	return out
}

func permits(role user.Role, act action) bool {
	switch role {
	case user.RoleCustomer:
		return act == actionCreate || act == actionCancel
	case user.RoleAdmin, user.RoleCafeOwner, user.RoleWaiter:
		return act == actionConfirm || act == actionCancel || act == actionComplete
	case user.RoleChef, user.RoleUnknown:
	}
	return false
}
