package order

type Event string

const (
	EventCheckoutCreated  Event = "checkout_created"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventDisputeCreated   Event = "dispute_created"

	EventStartProcessing Event = "start_processing"
	EventShip            Event = "ship"
	EventDeliver         Event = "deliver"
	EventCancel          Event = "cancel"
	EventRefund          Event = "refund"
)

type rule struct {
	from    []Status
	to      Status
	payment PaymentStatus // empty leaves paymentStatus as is
	admin   bool
}

var rules = map[Event]rule{
	EventPaymentSucceeded: {
		// CANCELLED is allowed so a retried payment revives a failed order.
		from:    []Status{StatusPending, StatusCancelled},
		to:      StatusConfirmed,
		payment: PaymentStatusPaid,
	},
	EventPaymentFailed: {
		from:    []Status{StatusPending},
		to:      StatusCancelled,
		payment: PaymentStatusFailed,
	},
	EventDisputeCreated: {
		from:    []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered},
		to:      StatusDisputed,
		payment: PaymentStatusDisputed,
	},
	EventStartProcessing: {
		from:  []Status{StatusConfirmed},
		to:    StatusProcessing,
		admin: true,
	},
	EventShip: {
		from:  []Status{StatusProcessing},
		to:    StatusShipped,
		admin: true,
	},
	EventDeliver: {
		from:  []Status{StatusShipped},
		to:    StatusDelivered,
		admin: true,
	},
	EventCancel: {
		from:  []Status{StatusPending, StatusConfirmed, StatusProcessing},
		to:    StatusCancelled,
		admin: true,
	},
	EventRefund: {
		from:  []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusDisputed},
		to:    StatusRefunded,
		admin: true,
	},
}

// Step is the outcome of applying an event to an order status.
type Step struct {
	From    Status
	To      Status
	Payment PaymentStatus
	// Noop is set when the order already sits in the target status, e.g. a
	// provider event delivered twice.
	Noop bool
}

// Transition looks up the move for event from current. It never touches
// storage; callers persist the step with a conditional update.
func Transition(current Status, event Event) (Step, error) {
	r, ok := rules[event]
	if !ok {
		return Step{}, ErrUnknownEvent
	}

	if current == r.to {
		return Step{From: current, To: current, Payment: r.payment, Noop: true}, nil
	}

	for _, s := range r.from {
		if s == current {
			return Step{From: current, To: r.to, Payment: r.payment}, nil
		}
	}

	return Step{}, ErrInvalidTransition
}

// NewOrderStatus is the state every order starts in.
func NewOrderStatus() (Status, PaymentStatus) {
	return StatusPending, PaymentStatusPending
}

// ParseAdminEvent accepts only the events an operator may trigger by hand.
func ParseAdminEvent(s string) (Event, bool) {
	e := Event(s)
	r, ok := rules[e]
	if !ok || !r.admin {
		return "", false
	}
	return e, true
}
