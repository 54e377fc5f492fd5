package dashboard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func versions(s *metrics.Store) []uint64 {
	var out []uint64
	for _, src := range metrics.Sources {
		out = append(out, s.Version(src))
	}
	return out
}

func TestNew_ReadsStore(t *testing.T) {
	store := metrics.NewStore()
	store.SetSystem(metrics.SystemSnapshot{LogicalCPUs: 10})

	m := New(store, time.Second)

	assert.Equal(t, 10, m.system.LogicalCPUs)
	assert.Equal(t, time.Second, m.interval)
	assert.False(t, m.updated[metrics.SourceSystem].IsZero())
	assert.True(t, m.updated[metrics.SourcePower].IsZero())
}

func TestModel_Init(t *testing.T) {
	m := New(metrics.NewStore(), time.Millisecond)

	cmd := m.Init()
	require.NotNil(t, cmd)

	_, ok := cmd().(tickMsg)
	assert.True(t, ok, "init schedules a tick")
}

func TestModel_TickRefreshesAndReschedules(t *testing.T) {
	store := metrics.NewStore()
	m := New(store, time.Millisecond)
	assert.Nil(t, m.battery.SmartBattery)

	store.SetBattery(metrics.BatterySnapshot{SmartBattery: &metrics.SmartBattery{RawCurrentCapacity: 50, RawMaxCapacity: 100}})

	updated, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)

	got := updated.(Model)
	require.NotNil(t, got.battery.SmartBattery)
	assert.Equal(t, 50, got.battery.SmartBattery.RawCurrentCapacity)
}

func TestModel_QuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m := New(metrics.NewStore(), time.Second)

			updated, cmd := m.Update(keyMsg(k))
			require.NotNil(t, cmd)
			_, isQuit := cmd().(tea.QuitMsg)
			assert.True(t, isQuit)
			assert.Empty(t, updated.View())
		})
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := New(metrics.NewStore(), time.Second)

	updated, cmd := m.Update(keyMsg("?"))
	assert.Nil(t, cmd)
	got := updated.(Model)
	assert.True(t, got.showHelp)
	assert.Contains(t, got.View(), "Keyboard Shortcuts")

	updated, _ = got.Update(keyMsg("?"))
	got = updated.(Model)
	assert.False(t, got.showHelp)
	assert.NotContains(t, got.View(), "Keyboard Shortcuts")
}

func TestModel_RefreshKey(t *testing.T) {
	store := metrics.NewStore()
	m := New(store, time.Hour)

	store.SetSystem(metrics.SystemSnapshot{PhysicalCPUs: 4})
	updated, cmd := m.Update(keyMsg("r"))

	assert.Nil(t, cmd, "a manual refresh doesn't schedule an extra tick")
	assert.Equal(t, 4, updated.(Model).system.PhysicalCPUs)
}

func TestModel_WindowSize(t *testing.T) {
	m := New(metrics.NewStore(), time.Second)

	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	assert.Nil(t, cmd)

	got := updated.(Model)
	assert.Equal(t, 140, got.width)
	assert.Equal(t, 50, got.height)
	assert.Equal(t, 140, got.help.Width)
}

func TestModel_NeverWritesStore(t *testing.T) {
	store := metrics.NewStore()
	store.SetPower(applePower())
	store.SetBattery(metrics.BatterySnapshot{SmartBattery: chargingBattery()})
	store.SetSystem(busySystem())
	before := versions(store)

	var model tea.Model = New(store, time.Millisecond)
	for _, msg := range []tea.Msg{
		tickMsg(time.Now()),
		tea.WindowSizeMsg{Width: 160, Height: 60},
		keyMsg("r"),
		keyMsg("?"),
		keyMsg("?"),
	} {
		model, _ = model.Update(msg)
		_ = model.View()
	}

	assert.Equal(t, before, versions(store))
}

func TestModel_UnknownKeyIgnored(t *testing.T) {
	m := New(metrics.NewStore(), time.Second)

	updated, cmd := m.Update(keyMsg("x"))
	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).quitting)
}
