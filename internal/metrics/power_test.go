package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intelFixture() *IntelProcessor {
	return NewIntelProcessor(Gauge{Value: 12.5}, []Package{
		{
			CStateRatio: 0.5,
			Cores: []Core{
				{Index: 0, CPUs: []CPU{{Number: 0, FreqHz: 2e9}, {Number: 1, FreqHz: 4e9}}},
				{Index: 1, CPUs: []CPU{{Number: 2}, {Number: 3}}},
				{Index: 2, CPUs: []CPU{{Number: 4}, {Number: 5}}},
			},
		},
		{
			CStateRatio: 0.7,
			Cores: []Core{
				{Index: 3, CPUs: []CPU{{Number: 6}, {Number: 7}}},
				{Index: 4, CPUs: []CPU{{Number: 8}, {Number: 9}}},
			},
		},
	})
}

func TestIntelProcessor_CoreAt(t *testing.T) {
	p := intelFixture()

	tests := []struct {
		name      string
		index     int
		wantCore  int
		wantFound bool
	}{
		{name: "first core of first package", index: 0, wantCore: 0, wantFound: true},
		{name: "last core of first package", index: 2, wantCore: 2, wantFound: true},
		{name: "first core of second package", index: 3, wantCore: 3, wantFound: true},
		{name: "last core of second package", index: 4, wantCore: 4, wantFound: true},
		{name: "past the end", index: 5, wantFound: false},
		{name: "negative", index: -1, wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, ok := p.CoreAt(tt.index)
			require.Equal(t, tt.wantFound, ok)
			if ok {
				assert.Equal(t, tt.wantCore, core.Index)
			}
		})
	}

	assert.Len(t, p.Cores(), 5)
}

func TestIntelProcessor_EmptyPackages(t *testing.T) {
	p := NewIntelProcessor(Gauge{}, nil)
	_, ok := p.CoreAt(0)
	assert.False(t, ok)
	assert.Empty(t, p.Cores())
}

func TestProcessorKind(t *testing.T) {
	assert.Equal(t, ProcessorUnknown, KindOf(nil))
	assert.Equal(t, ProcessorIntel, KindOf(intelFixture()))
	assert.Equal(t, ProcessorApple, KindOf(&AppleProcessor{}))

	assert.Equal(t, "intel", ProcessorIntel.String())
	assert.Equal(t, "apple", ProcessorApple.String())
	assert.Equal(t, "unknown", ProcessorUnknown.String())
}

func TestMeanFreqHz(t *testing.T) {
	core, _ := intelFixture().CoreAt(0)
	assert.InDelta(t, 3e9, core.MeanFreqHz(), 1)

	cluster := Cluster{Name: "P0-Cluster", CPUs: []CPU{{FreqHz: 1000}, {FreqHz: 3000}}}
	assert.InDelta(t, 2000, cluster.MeanFreqHz(), 1e-9)
	assert.Zero(t, Cluster{}.MeanFreqHz())
}
