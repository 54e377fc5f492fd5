package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batteryDict(capacity int, connected bool) m {
	return m{
		"AppleRawCurrentCapacity": capacity,
		"AppleRawMaxCapacity":     4000,
		"DesignCapacity":          5000,
		"Temperature":             3012,
		"CycleCount":              87,
		"ExternalChargeCapable":   connected,
		"ExternalConnected":       connected,
		"IsCharging":              connected,
		"AdapterDetails": m{
			"AdapterVoltage": 20000,
			"Current":        3000,
			"Watts":          60,
			"Description":    "pd charger",
			"Manufacturer":   "Apple Inc.",
			"Name":           "60W USB-C Power Adapter",
		},
	}
}

func TestParseBattery(t *testing.T) {
	at := time.Unix(1700000000, 0)
	snap, err := ParseBattery(decode(t, batteryDict(3500, true)), metrics.BatterySnapshot{}, 10, at)
	require.NoError(t, err)

	b := snap.SmartBattery
	require.NotNil(t, b)
	assert.Equal(t, at, snap.CollectedAt)
	assert.Equal(t, 3500, b.RawCurrentCapacity)
	assert.Equal(t, 4000, b.RawMaxCapacity)
	assert.Equal(t, 5000, b.DesignCapacity)
	assert.Equal(t, 87, b.CycleCount)
	assert.InDelta(t, 30.12, b.Celsius(), 1e-9)
	assert.InDelta(t, 87.5, b.Percent(), 1e-9)
	assert.InDelta(t, 80.0, b.Health(), 1e-9)
	assert.True(t, b.IsCharging)
	assert.Equal(t, []metrics.CapacitySample{{At: at, Capacity: 3500}}, b.CapacityHistory)

	require.NotNil(t, b.Adapter)
	assert.Equal(t, metrics.AdapterDetails{
		Voltage:      20000,
		Current:      3000,
		Watts:        60,
		Description:  "pd charger",
		Manufacturer: "Apple Inc.",
		Name:         "60W USB-C Power Adapter",
	}, *b.Adapter)
}

func TestParseBattery_AdapterOnlyWhenConnected(t *testing.T) {
	tests := []struct {
		name        string
		doc         m
		wantAdapter bool
	}{
		{name: "connected", doc: batteryDict(1, true), wantAdapter: true},
		{name: "on battery with stale details", doc: batteryDict(1, false), wantAdapter: false},
		{
			name: "connected without details",
			doc: func() m {
				d := batteryDict(1, true)
				delete(d, "AdapterDetails")
				return d
			}(),
			wantAdapter: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := ParseBattery(decode(t, tt.doc), metrics.BatterySnapshot{}, 10, time.Now())
			require.NoError(t, err)
			b := snap.SmartBattery
			assert.Equal(t, b.ExternalConnected, b.Adapter != nil)
			assert.Equal(t, tt.wantAdapter, b.Adapter != nil)
		})
	}
}

func TestParseBattery_MissingField(t *testing.T) {
	for _, key := range []string{"AppleRawCurrentCapacity", "CycleCount", "ExternalConnected", "IsCharging"} {
		t.Run(key, func(t *testing.T) {
			doc := batteryDict(1, true)
			delete(doc, key)

			_, err := ParseBattery(decode(t, doc), metrics.BatterySnapshot{}, 10, time.Now())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrParse))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestParseBattery_HistoryIsBounded(t *testing.T) {
	var snap metrics.BatterySnapshot
	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		next, err := ParseBattery(decode(t, batteryDict(3000+i, false)), snap, 3, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		snap = next
	}

	history := snap.CapacityHistory()
	require.Len(t, history, 3)
	assert.Equal(t, 3002, history[0].Capacity)
	assert.Equal(t, 3004, history[2].Capacity)
	assert.Equal(t, base.Add(4*time.Second), history[2].At)
}

func TestBatteryCollector_ToleratesFailures(t *testing.T) {
	log := logger.NewBufferLogger()
	store := metrics.NewStore()

	var calls atomic.Int64
	capture := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "ioreg", name)
		assert.Equal(t, []string{"-w", "0", "-r", "-a", "-c", "AppleSmartBattery"}, args)

		n := calls.Add(1)
		switch n {
		case 2:
			return nil, errors.New(errors.ErrExec, "ioreg exited with code 1", "")
		case 3:
			return []byte("not a plist"), nil
		case 4:
			doc := batteryDict(1, false)
			delete(doc, "DesignCapacity")
			return encodePlist(t, l{doc}), nil
		default:
			return encodePlist(t, l{batteryDict(3000+int(n), false)}), nil
		}
	}

	c := NewBatteryCollector(store, BatteryOptions{
		Interval:    time.Millisecond,
		HistorySize: 3,
		Capture:     capture,
		Logger:      log,
	})
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() >= 8 }, 5*time.Second, time.Millisecond)
	require.NoError(t, c.Stop())
	waitDone(t, c)

	total := calls.Load()
	assert.Equal(t, uint64(total-3), store.Version(metrics.SourceBattery))
	assert.Len(t, store.Battery().CapacityHistory(), 3)
	assert.Equal(t, 3000+int(total), store.Battery().SmartBattery.RawCurrentCapacity)

	assert.True(t, log.Contains("warn", "ioreg exited with code 1"))
	assert.True(t, log.Contains("warn", "missing required field 'DesignCapacity'"))
}

func TestBatteryCollector_InFlightPollFinishesBeforeStop(t *testing.T) {
	store := metrics.NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var runErr error

	c := NewBatteryCollector(store, BatteryOptions{
		Interval: time.Hour,
		Capture: func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
			once.Do(func() { close(entered) })
			<-release
			runErr = ctx.Err()
			return encodePlist(t, l{batteryDict(1234, false)}), nil
		},
	})
	require.NoError(t, c.Start(context.Background()))
	<-entered

	stopped := make(chan struct{})
	go func() {
		_ = c.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a poll was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.NoError(t, runErr, "stopping doesn't cancel the running command")
	assert.Equal(t, uint64(1), store.Version(metrics.SourceBattery))
	assert.Equal(t, 1234, store.Battery().SmartBattery.RawCurrentCapacity)
}

func TestBatteryCollector_PollTimeout(t *testing.T) {
	log := logger.NewBufferLogger()
	c := NewBatteryCollector(metrics.NewStore(), BatteryOptions{
		Interval: time.Hour,
		Timeout:  20 * time.Millisecond,
		Logger:   log,
		Capture: func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return log.Contains("warn", "took longer than 20ms") },
		5*time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, c.Stop())
	assert.Less(t, time.Since(start), time.Second)
}
