package monitor

import (
	"sort"
	"sync"
	"time"

	"tcu-monitor/internal/models"
)

// Store is the liveness table: the last-seen timestamp of every device that
// has ever reported. It is the only mutable state in the system. Writes come
// from the telemetry consumer, reads from timer-fired evaluations, so a
// single mutex guards the map.
type Store struct {
	mu       sync.RWMutex
	lastSeen map[models.GroupKey]map[int]time.Time
}

func NewStore() *Store {
	return &Store{lastSeen: make(map[models.GroupKey]map[int]time.Time)}
}

// RecordSeen upserts the last-seen timestamp for a device. Last write wins;
// the registry is never consulted, so a device that was never configured is
// still recorded.
func (s *Store) RecordSeen(group models.GroupKey, deviceID int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices, ok := s.lastSeen[group]
	if !ok {
		devices = make(map[int]time.Time)
		s.lastSeen[group] = devices
	}
	devices[deviceID] = at
}

// LastSeen returns the last-seen timestamp for a device. Absence means the
// device has never reported.
func (s *Store) LastSeen(group models.GroupKey, deviceID int) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.lastSeen[group][deviceID]
	return at, ok
}

// SeenDevices returns a copy of every recorded device for a group.
func (s *Store) SeenDevices(group models.GroupKey) map[int]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := make(map[int]time.Time, len(s.lastSeen[group]))
	for id, at := range s.lastSeen[group] {
		devices[id] = at
	}
	return devices
}

// Groups returns every group that has ever reported, sorted.
func (s *Store) Groups() []models.GroupKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]models.GroupKey, 0, len(s.lastSeen))
	for k := range s.lastSeen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Project != keys[j].Project {
			return keys[i].Project < keys[j].Project
		}
		return keys[i].NCU < keys[j].NCU
	})
	return keys
}

// AllKnownDeviceIDs returns the union of the registry's expected ids and
// every id ever recorded for the group, sorted ascending.
func (s *Store) AllKnownDeviceIDs(group models.GroupKey, entry models.RegistryEntry) []int {
	ids := make(map[int]struct{})
	for _, id := range entry.ExpectedDevices() {
		ids[id] = struct{}{}
	}
	s.mu.RLock()
	for id := range s.lastSeen[group] {
		ids[id] = struct{}{}
	}
	s.mu.RUnlock()

	all := make([]int, 0, len(ids))
	for id := range ids {
		all = append(all, id)
	}
	sort.Ints(all)
	return all
}
