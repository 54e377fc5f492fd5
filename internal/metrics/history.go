package metrics

// DefaultHistorySize is the default number of samples kept per history-bearing field.
const DefaultHistorySize = 100

// Append returns history with v appended, keeping only the newest capacity
// elements. The input is never modified and the result never shares its
// backing array, so snapshots built from it stay independent.
func Append[T any](history []T, v T, capacity int) []T {
	if capacity < 1 {
		capacity = 1
	}

	keep := len(history)
	if keep > capacity-1 {
		keep = capacity - 1
	}

	out := make([]T, 0, keep+1)
	out = append(out, history[len(history)-keep:]...)
	return append(out, v)
}

// Gauge is a scalar reading paired with its recent history. The newest
// sample is always last in History and equals Value.
type Gauge struct {
	Value   float64   `yaml:"value"`
	History []float64 `yaml:"history,omitempty"`
}

// Next returns a new gauge holding v, with v appended to the receiver's history.
func (g Gauge) Next(v float64, capacity int) Gauge {
	return Gauge{Value: v, History: Append(g.History, v, capacity)}
}
