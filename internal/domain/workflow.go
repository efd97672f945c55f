package domain

// StatusWorkflow decides which status changes an order may go through
type StatusWorkflow struct {
	allowed map[OrderStatus]map[OrderStatus]bool
}

// PermissiveWorkflow accepts any move between enumerated statuses,
// backwards moves included
func PermissiveWorkflow() *StatusWorkflow {
	allowed := make(map[OrderStatus]map[OrderStatus]bool, len(Statuses))
	for _, from := range Statuses {
		allowed[from] = make(map[OrderStatus]bool, len(Statuses))
		for _, to := range Statuses {
			allowed[from][to] = true
		}
	}
	return &StatusWorkflow{allowed: allowed}
}

// StrictWorkflow only allows Pending -> Baking -> Ready -> Delivered, one step
// at a time. Re-applying the current status is always allowed.
func StrictWorkflow() *StatusWorkflow {
	allowed := make(map[OrderStatus]map[OrderStatus]bool, len(Statuses))
	for i, from := range Statuses {
		allowed[from] = map[OrderStatus]bool{from: true}
		if i+1 < len(Statuses) {
			allowed[from][Statuses[i+1]] = true
		}
	}
	return &StatusWorkflow{allowed: allowed}
}

// CanTransition reports whether an order in status from may move to status to
func (w *StatusWorkflow) CanTransition(from, to OrderStatus) bool {
	next, ok := w.allowed[from]
	if !ok {
		return false
	}
	return next[to]
}
