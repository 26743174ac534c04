package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tcu-monitor/internal/models"
)

func fleetRegistry() models.Registry {
	return models.Registry{
		"rabarika": {
			"2172-A": {TotalDevices: 4},
			"2172-B": {TotalDevices: 2},
		},
		"bhojabedi": {
			"2240": {TotalDevices: 3, ExpectedIDs: []int{48, 49, 50}},
		},
	}
}

func TestBuildStatusReportPartitionInvariant(t *testing.T) {
	registry := fleetRegistry()
	store := NewStore()
	now := daytime

	groupA := models.GroupKey{Project: "rabarika", NCU: "2172-A"}
	store.RecordSeen(groupA, 1, now.Add(-5*time.Minute))  // active
	store.RecordSeen(groupA, 2, now.Add(-45*time.Minute)) // inactive
	store.RecordSeen(groupA, 9, now.Add(-2*time.Minute))  // active, unregistered
	// 3 and 4 never received

	report := BuildStatusReport(store, registry, now, 30, time.Hour)
	require.Len(t, report.Groups, 3)

	var tally models.Tally
	for _, gs := range report.Groups {
		entry, ok := registry.Entry(gs.Group.Project, gs.Group.NCU)
		require.True(t, ok)
		known := store.AllKnownDeviceIDs(gs.Group, entry)
		assert.Equal(t, len(known), len(gs.Active)+len(gs.Inactive)+len(gs.NeverReceived),
			"partition must cover all known devices for %s", gs.Group)

		tally.Active += len(gs.Active)
		tally.Inactive += len(gs.Inactive)
		tally.NeverReceived += len(gs.NeverReceived)
		tally.Total += len(known)
	}
	assert.Equal(t, tally, report.Overall)
}

func TestBuildStatusReportGroupDetail(t *testing.T) {
	registry := fleetRegistry()
	store := NewStore()
	now := daytime

	group := models.GroupKey{Project: "rabarika", NCU: "2172-B"}
	store.RecordSeen(group, 1, now.Add(-10*time.Minute))
	store.RecordSeen(group, 2, now.Add(-31*time.Minute))

	report := BuildStatusReport(store, registry, now, 30, time.Hour)

	var gs models.GroupStatus
	for _, g := range report.Groups {
		if g.Group == group {
			gs = g
		}
	}
	require.Len(t, gs.Active, 1)
	assert.Equal(t, 1, gs.Active[0].DeviceID)
	assert.Equal(t, 10, gs.Active[0].MinutesSinceLast)
	require.Len(t, gs.Inactive, 1)
	assert.Equal(t, 2, gs.Inactive[0].DeviceID)
	assert.Empty(t, gs.NeverReceived)
	assert.InDelta(t, 50.0, gs.ActivePercent, 0.01)
}

func TestBuildStatusReportBoundaryIsActive(t *testing.T) {
	registry := models.Registry{"p": {"n": {TotalDevices: 1}}}
	store := NewStore()
	group := models.GroupKey{Project: "p", NCU: "n"}
	// Exactly at the threshold counts as active (<=).
	store.RecordSeen(group, 1, daytime.Add(-30*time.Minute))

	report := BuildStatusReport(store, registry, daytime, 30, 0)
	require.Len(t, report.Groups, 1)
	assert.Len(t, report.Groups[0].Active, 1)
	assert.Empty(t, report.Groups[0].Inactive)
}

func TestBuildDailySummaryCounts(t *testing.T) {
	registry := models.Registry{"p": {"n": {TotalDevices: 3}}}
	store := NewStore()
	group := models.GroupKey{Project: "p", NCU: "n"}
	store.RecordSeen(group, 1, daytime.Add(-5*time.Minute))
	store.RecordSeen(group, 2, daytime.Add(-60*time.Minute))

	summary := BuildDailySummary(store, registry, daytime, 30)
	assert.Equal(t, models.Tally{Total: 3, Active: 1, Inactive: 1, NeverReceived: 1}, summary.Overall)
	assert.InDelta(t, 33.3, summary.Overall.ActivePercent(), 0.1)
}

func TestBuildInactivityReportOrdersGroupsAndCounts(t *testing.T) {
	findings := map[models.GroupKey][]models.Finding{
		{Project: "zeta", NCU: "1"}: {
			{DeviceID: 2, Status: models.StatusTimedOut, MinutesInactive: 31},
		},
		{Project: "alpha", NCU: "9"}: {
			{DeviceID: 1, Status: models.StatusNeverReceived},
			{DeviceID: 4, Status: models.StatusTimedOut, MinutesInactive: 44},
		},
	}

	report := BuildInactivityReport(findings, daytime, 30, 10)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "alpha", report.Groups[0].Group.Project)
	assert.Equal(t, "zeta", report.Groups[1].Group.Project)
	assert.Equal(t, 3, report.TotalInactive)
	assert.Equal(t, 30, report.TimeoutMinutes)
	assert.Equal(t, 10*time.Minute, report.NextCheckIn)
}

func TestTallyActivePercentEmpty(t *testing.T) {
	assert.Zero(t, models.Tally{}.ActivePercent())
}
