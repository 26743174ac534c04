package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tcu-monitor/internal/models"
)

func testRegistry() models.Registry {
	return models.Registry{
		"bhojabedi": {
			"2240": {TotalDevices: 3, ExpectedIDs: []int{48, 49, 50}},
		},
	}
}

// daytime is well outside the default 19:00-06:00 quiet window.
var daytime = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestPolicy(store *Store, registry models.Registry) *Policy {
	return NewPolicy(store, registry, 30, 19, 6)
}

func TestPolicyTimeoutIsStrictlyGreater(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	store.RecordSeen(group, 48, daytime.Add(-30*time.Minute))
	store.RecordSeen(group, 49, daytime.Add(-31*time.Minute))
	store.RecordSeen(group, 50, daytime.Add(-1*time.Minute))

	findings := newTestPolicy(store, testRegistry()).Evaluate(daytime)
	require.Contains(t, findings, group)

	// 48 at exactly the threshold is not timed out; only 49 is.
	require.Len(t, findings[group], 1)
	assert.Equal(t, 49, findings[group][0].DeviceID)
	assert.Equal(t, models.StatusTimedOut, findings[group][0].Status)
	assert.Equal(t, 31, findings[group][0].MinutesInactive)
}

func TestPolicyNeverReceived(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	store.RecordSeen(group, 49, daytime.Add(-time.Minute))
	store.RecordSeen(group, 50, daytime.Add(-time.Minute))

	findings := newTestPolicy(store, testRegistry()).Evaluate(daytime)
	require.Contains(t, findings, group)
	require.Len(t, findings[group], 1)
	assert.Equal(t, 48, findings[group][0].DeviceID)
	assert.Equal(t, models.StatusNeverReceived, findings[group][0].Status)
}

func TestPolicyEmptyExpectedListDefaultsToTotal(t *testing.T) {
	registry := models.Registry{"proj": {"ncu": {TotalDevices: 3}}}
	group := models.GroupKey{Project: "proj", NCU: "ncu"}

	store := NewStore()
	t0 := daytime.Add(-31 * time.Minute)
	store.RecordSeen(group, 1, t0)
	store.RecordSeen(group, 2, t0)

	findings := newTestPolicy(store, registry).Evaluate(daytime)
	require.Contains(t, findings, group)
	require.Len(t, findings[group], 3)

	byID := map[int]models.Finding{}
	for _, f := range findings[group] {
		byID[f.DeviceID] = f
	}
	assert.Equal(t, models.StatusTimedOut, byID[1].Status)
	assert.Equal(t, 31, byID[1].MinutesInactive)
	assert.Equal(t, models.StatusTimedOut, byID[2].Status)
	assert.Equal(t, 31, byID[2].MinutesInactive)
	assert.Equal(t, models.StatusNeverReceived, byID[3].Status)
}

func TestPolicyFlagsUnregisteredReporters(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	store.RecordSeen(group, 48, daytime.Add(-time.Minute))
	store.RecordSeen(group, 49, daytime.Add(-time.Minute))
	store.RecordSeen(group, 50, daytime.Add(-time.Minute))
	// 99 is not in the expected list but has reported and gone stale.
	store.RecordSeen(group, 99, daytime.Add(-45*time.Minute))

	findings := newTestPolicy(store, testRegistry()).Evaluate(daytime)
	require.Contains(t, findings, group)
	require.Len(t, findings[group], 1)
	assert.Equal(t, 99, findings[group][0].DeviceID)
	assert.Equal(t, 45, findings[group][0].MinutesInactive)
}

func TestPolicyDedupesAcrossPasses(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	// 48 is both expected and seen-stale; it must appear exactly once.
	store.RecordSeen(group, 48, daytime.Add(-40*time.Minute))
	store.RecordSeen(group, 49, daytime.Add(-time.Minute))
	store.RecordSeen(group, 50, daytime.Add(-time.Minute))

	findings := newTestPolicy(store, testRegistry()).Evaluate(daytime)
	require.Contains(t, findings, group)
	require.Len(t, findings[group], 1)
	assert.Equal(t, 48, findings[group][0].DeviceID)
}

func TestPolicyHealthyFleetHasNoFindings(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	store.RecordSeen(group, 48, daytime.Add(-time.Minute))
	store.RecordSeen(group, 49, daytime.Add(-time.Minute))
	store.RecordSeen(group, 50, daytime.Add(-time.Minute))

	assert.Nil(t, newTestPolicy(store, testRegistry()).Evaluate(daytime))
}

func TestPolicyQuietHoursSuppression(t *testing.T) {
	store := NewStore()
	policy := newTestPolicy(store, testRegistry())

	evening := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	assert.True(t, policy.InQuietHours(evening))
	assert.True(t, policy.InQuietHours(night))
	assert.False(t, policy.InQuietHours(morning), "quiet window end is exclusive")
	assert.False(t, policy.InQuietHours(daytime))

	// Everything in the registry is never-received, but the window wins.
	assert.Nil(t, policy.Evaluate(evening))
	assert.NotNil(t, policy.Evaluate(daytime))
}

func TestPolicyQuietHoursNonWrappingWindow(t *testing.T) {
	policy := NewPolicy(NewStore(), testRegistry(), 30, 12, 14)
	assert.True(t, policy.InQuietHours(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)))
	assert.False(t, policy.InQuietHours(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
	assert.False(t, policy.InQuietHours(daytime))
}

func TestPolicyFindingsSortedByDevice(t *testing.T) {
	group := models.GroupKey{Project: "bhojabedi", NCU: "2240"}
	store := NewStore()
	store.RecordSeen(group, 50, daytime.Add(-50*time.Minute))

	findings := newTestPolicy(store, testRegistry()).Evaluate(daytime)
	require.Contains(t, findings, group)
	ids := make([]int, 0, len(findings[group]))
	for _, f := range findings[group] {
		ids = append(ids, f.DeviceID)
	}
	assert.Equal(t, []int{48, 49, 50}, ids)
}
