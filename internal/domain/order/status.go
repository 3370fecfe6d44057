package order

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew       Status = "New"
	StatusPreparing Status = "Preparing"
	StatusOnTheWay  Status = "On the Way"
	StatusDelivered Status = "Delivered"
	StatusDenied    Status = "Denied"
)

// Action is an admin command that moves an order between statuses.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDeny    Action = "deny"
	ActionReady   Action = "ready"
	ActionDeliver Action = "deliver"
)

type edge struct {
	from   Status
	action Action
}

var transitions = map[edge]Status{
	{StatusNew, ActionAccept}:       StatusPreparing,
	{StatusNew, ActionDeny}:         StatusDenied,
	{StatusPreparing, ActionReady}:  StatusOnTheWay,
	{StatusOnTheWay, ActionDeliver}: StatusDelivered,
}

var actionOrder = []Action{ActionAccept, ActionDeny, ActionReady, ActionDeliver}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPreparing, StatusOnTheWay, StatusDelivered, StatusDenied:
		return true
	default:
		return false
	}
}

// Terminal reports whether no action can leave s.
func (s Status) Terminal() bool {
	return len(AllowedActions(s)) == 0
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range actionOrder {
		if a == known {
			return true
		}
	}
	return false
}

// Next returns the status reached by applying action to from.
func Next(from Status, action Action) (Status, error) {
	to, ok := transitions[edge{from: from, action: action}]
	if !ok {
		return from, &IllegalTransitionError{From: from, Action: action}
	}
	return to, nil
}

// AllowedActions lists the actions legal from s, in a stable order.
func AllowedActions(s Status) []Action {
	var out []Action
	for _, a := range actionOrder {
		if _, ok := transitions[edge{from: s, action: a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
