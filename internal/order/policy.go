package order

import "cafe-be/internal/user"

type action string

const (
	actionPlace          action = "place"
	actionConfirm        action = "confirm"
	actionStartPreparing action = "start preparing"
	actionMarkReady      action = "mark ready"
	actionMarkServed     action = "mark served"
	actionComplete       action = "complete"
	actionCancel         action = "cancel"
	actionUpdateStatus   action = "update status"
	actionDelete         action = "delete"
)

type transition struct {
	from []Status
	to   Status
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

// PLACED is accepted by start preparing: a kitchen may pick up an order the
// owner has not confirmed yet.
var transitions = map[action]transition{
	actionConfirm:        {from: []Status{StatusPlaced}, to: StatusConfirmed},
	actionStartPreparing: {from: []Status{StatusPlaced, StatusConfirmed}, to: StatusPreparing},
	actionMarkReady:      {from: []Status{StatusPreparing}, to: StatusReady},
	actionMarkServed:     {from: []Status{StatusReady}, to: StatusServed},
	actionComplete:       {from: []Status{StatusServed}, to: StatusCompleted},
	actionCancel: {
		from: []Status{StatusPlaced, StatusConfirmed, StatusPreparing, StatusReady, StatusServed},
		to:   StatusCancelled,
	},
}

// permits reports whether a role may attempt act at all. Ownership of the
// order or cafe is checked separately once the order is loaded.
func permits(role user.Role, act action) bool {
	switch role {
	case user.RoleAdmin:
		switch act {
		case actionPlace, actionConfirm, actionComplete, actionCancel, actionUpdateStatus, actionDelete:
			return true
		}
	case user.RoleCafeOwner:
		switch act {
		case actionConfirm, actionComplete, actionCancel:
			return true
		}
	case user.RoleChef:
		switch act {
		case actionStartPreparing, actionMarkReady:
			return true
		}
	case user.RoleWaiter:
		switch act {
		case actionMarkServed, actionComplete:
			return true
		}
	case user.RoleCustomer:
		switch act {
		case actionPlace, actionCancel:
			return true
		}
	case user.RoleUnknown:
	}
	return false
}
