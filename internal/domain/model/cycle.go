package model

// CycleResult summarises one check cycle.
type CycleResult struct {
	Current   int
	Last      int
	Delta     int
	Delivered []string
	Failed    []string
	Persisted bool
}

// Notified reports whether the cycle dispatched anything.
func (r CycleResult) Notified() bool {
	return r.Delta > 0 && len(r.Delivered) > 0
}
