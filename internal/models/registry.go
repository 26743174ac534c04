package models

import "sort"

// RegistryEntry is the static configuration of one NCU: how many TCUs it
// carries and, optionally, the explicit list of device ids expected to
// report. Immutable after load.
type RegistryEntry struct {
	TotalDevices int   `json:"total_tcus"`
	ExpectedIDs  []int `json:"expected_tcus"`
}

// ExpectedDevices resolves the expected id set. An empty ExpectedIDs list
// means the ids are unknown and defaults to 1..TotalDevices.
func (e RegistryEntry) ExpectedDevices() []int {
	if len(e.ExpectedIDs) > 0 {
		ids := make([]int, len(e.ExpectedIDs))
		copy(ids, e.ExpectedIDs)
		return ids
	}
	ids := make([]int, 0, e.TotalDevices)
	for i := 1; i <= e.TotalDevices; i++ {
		ids = append(ids, i)
	}
	return ids
}

// Registry maps project -> NCU -> entry, mirroring the topic hierarchy.
type Registry map[string]map[string]RegistryEntry

// Entry looks up the configuration for a (project, NCU) pair.
func (r Registry) Entry(project, ncu string) (RegistryEntry, bool) {
	ncus, ok := r[project]
	if !ok {
		return RegistryEntry{}, false
	}
	entry, ok := ncus[ncu]
	return entry, ok
}

// Groups returns every configured (project, NCU) pair in stable order.
func (r Registry) Groups() []GroupKey {
	var keys []GroupKey
	for project, ncus := range r {
		for ncu := range ncus {
			keys = append(keys, GroupKey{Project: project, NCU: ncu})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Project != keys[j].Project {
			return keys[i].Project < keys[j].Project
		}
		return keys[i].NCU < keys[j].NCU
	})
	return keys
}
