package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Source identifies one independently collected category of telemetry.
type Source int

const (
	SourcePower Source = iota
	SourceBattery
	SourceSystem

	numSources
)

// Sources lists every valid source.
var Sources = []Source{SourcePower, SourceBattery, SourceSystem}

func (s Source) String() string {
	switch s {
	case SourcePower:
		return "powermetrics"
	case SourceBattery:
		return "ioreg"
	case SourceSystem:
		return "system"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Valid reports whether s names a known source.
func (s Source) Valid() bool {
	return s >= 0 && s < numSources
}

// Snapshot is a fully parsed reading from one source. Values handed to and
// returned by the Store must be treated as read-only.
type Snapshot interface {
	Source() Source
}

type slot struct {
	mu        sync.RWMutex
	snap      Snapshot
	version   uint64
	updatedAt time.Time
}

// Store holds the latest snapshot for each source. Every source has its own
// lock, so readers and writers of different sources never contend.
type Store struct {
	slots [numSources]slot
	now   func() time.Time
}

// NewStore returns a store with every source holding its empty default snapshot.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.slots[SourcePower].snap = PowerSnapshot{}
	s.slots[SourceBattery].snap = BatterySnapshot{}
	s.slots[SourceSystem].snap = SystemSnapshot{}
	return s
}

func (s *Store) slot(src Source) *slot {
	if !src.Valid() {
		panic(fmt.Sprintf("metrics: unknown source %d", int(src)))
	}
	return &s.slots[src]
}

// Get returns the current snapshot for src. Panics on an unknown source.
func (s *Store) Get(src Source) Snapshot {
	sl := s.slot(src)
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.snap
}

// Set replaces the snapshot for src. Panics on an unknown source or when
// snap belongs to a different source.
func (s *Store) Set(src Source, snap Snapshot) {
	sl := s.slot(src)
	if snap == nil || snap.Source() != src {
		panic(fmt.Sprintf("metrics: snapshot %T does not belong to source %s", snap, src))
	}
	now := s.now()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.snap = snap
	sl.version++
	sl.updatedAt = now
}

// Version counts publishes to src since the store was created.
func (s *Store) Version(src Source) uint64 {
	sl := s.slot(src)
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.version
}

// UpdatedAt is the wall time of the last publish to src, zero if none.
func (s *Store) UpdatedAt(src Source) time.Time {
	sl := s.slot(src)
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.updatedAt
}

// Power returns the current powermetrics snapshot.
func (s *Store) Power() PowerSnapshot {
	return s.Get(SourcePower).(PowerSnapshot)
}

// SetPower publishes a powermetrics snapshot.
func (s *Store) SetPower(p PowerSnapshot) {
	s.Set(SourcePower, p)
}

// Battery returns the current ioreg battery snapshot.
func (s *Store) Battery() BatterySnapshot {
	return s.Get(SourceBattery).(BatterySnapshot)
}

// SetBattery publishes a battery snapshot.
func (s *Store) SetBattery(b BatterySnapshot) {
	s.Set(SourceBattery, b)
}

// System returns the current OS counter snapshot.
func (s *Store) System() SystemSnapshot {
	return s.Get(SourceSystem).(SystemSnapshot)
}

// SetSystem publishes an OS counter snapshot.
func (s *Store) SetSystem(sys SystemSnapshot) {
	s.Set(SourceSystem, sys)
}
