package domain

// DeliveryOutcome aggregates the result of one fan-out or replay.
// Attempted counts transport invocations (one per live connection),
// Delivered counts the ones that succeeded. Partial failure is
// reported here, never raised as an error.
type DeliveryOutcome struct {
	Attempted int
	Delivered int
}

// Merge folds another outcome into this one.
func (o *DeliveryOutcome) Merge(other DeliveryOutcome) {
	o.Attempted += other.Attempted
	o.Delivered += other.Delivered
}
