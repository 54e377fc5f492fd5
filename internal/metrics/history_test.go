package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		history  []float64
		value    float64
		capacity int
		want     []float64
	}{
		{
			name:     "nil history starts fresh",
			history:  nil,
			value:    1,
			capacity: 3,
			want:     []float64{1},
		},
		{
			name:     "empty history starts fresh",
			history:  []float64{},
			value:    1,
			capacity: 3,
			want:     []float64{1},
		},
		{
			name:     "under capacity grows",
			history:  []float64{1, 2},
			value:    3,
			capacity: 3,
			want:     []float64{1, 2, 3},
		},
		{
			name:     "at capacity evicts oldest",
			history:  []float64{1, 2, 3},
			value:    4,
			capacity: 3,
			want:     []float64{2, 3, 4},
		},
		{
			name:     "over capacity input is trimmed",
			history:  []float64{1, 2, 3, 4, 5},
			value:    6,
			capacity: 2,
			want:     []float64{5, 6},
		},
		{
			name:     "capacity one keeps only newest",
			history:  []float64{9, 8},
			value:    7,
			capacity: 1,
			want:     []float64{7},
		},
		{
			name:     "non-positive capacity acts as one",
			history:  []float64{9},
			value:    7,
			capacity: 0,
			want:     []float64{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Append(tt.history, tt.value, tt.capacity))
		})
	}
}

func TestAppend_Overflow(t *testing.T) {
	var history []float64
	for i := 1; i <= 150; i++ {
		history = Append(history, float64(i), DefaultHistorySize)
		require.LessOrEqual(t, len(history), DefaultHistorySize)
		require.Equal(t, float64(i), history[len(history)-1])
	}

	require.Len(t, history, 100)
	assert.Equal(t, float64(51), history[0])
	assert.Equal(t, float64(150), history[99])
	for i, v := range history {
		assert.Equal(t, float64(51+i), v)
	}
}

func TestAppend_DoesNotAlias(t *testing.T) {
	prev := make([]float64, 2, 10)
	prev[0], prev[1] = 1, 2

	a := Append(prev, 3, 5)
	b := Append(prev, 4, 5)

	assert.Equal(t, []float64{1, 2, 3}, a)
	assert.Equal(t, []float64{1, 2, 4}, b)
	assert.Equal(t, []float64{1, 2}, prev)

	a[0] = 100
	assert.Equal(t, float64(1), prev[0])
}

func TestAppend_Generic(t *testing.T) {
	got := Append([]string{"a", "b"}, "c", 2)
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestGaugeNext(t *testing.T) {
	var g Gauge
	g = g.Next(10, 2)
	g = g.Next(20, 2)
	next := g.Next(30, 2)

	assert.Equal(t, 30.0, next.Value)
	assert.Equal(t, []float64{20, 30}, next.History)
	assert.Equal(t, []float64{10, 20}, g.History, "receiver must be untouched")
}
