package models

// Order status constants
const (
	OrderPending    = "pending"
	OrderAccepted   = "accepted"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
	OrderRejected   = "rejected"
)

var orderTransitions = map[string][]string{
	OrderPending:    {OrderAccepted, OrderRejected, OrderCancelled},
	OrderAccepted:   {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
}

// IsOrderStatus reports whether s is a known order status.
func IsOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderAccepted, OrderInProgress, OrderCompleted, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s string) bool {
	return len(orderTransitions[s]) == 0
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClientMayTransition reports whether the client side of an order may
// request the given target status. Clients can only cancel.
func ClientMayTransition(to string) bool {
	return to == OrderCancelled
}
