package monitor

import (
	"sort"
	"time"

	"tcu-monitor/internal/models"
)

// Policy evaluates which devices have gone inactive. It reads the store and
// registry, never mutates either.
type Policy struct {
	store          *Store
	registry       models.Registry
	timeoutMinutes int
	quietStart     int // hour, inclusive
	quietEnd       int // hour, exclusive
}

func NewPolicy(store *Store, registry models.Registry, timeoutMinutes, quietStart, quietEnd int) *Policy {
	return &Policy{
		store:          store,
		registry:       registry,
		timeoutMinutes: timeoutMinutes,
		quietStart:     quietStart,
		quietEnd:       quietEnd,
	}
}

// InQuietHours reports whether alerting is suppressed at t. The window wraps
// midnight: with the defaults 19 and 6 it covers 19:00-24:00 and 00:00-06:00.
func (p *Policy) InQuietHours(t time.Time) bool {
	hour := t.Hour()
	if p.quietStart <= p.quietEnd {
		return hour >= p.quietStart && hour < p.quietEnd
	}
	return hour >= p.quietStart || hour < p.quietEnd
}

// Evaluate computes the inactive devices per group at the given instant.
// During quiet hours it returns nil: no findings, no side effects. Only
// groups with at least one finding appear in the result.
func (p *Policy) Evaluate(now time.Time) map[models.GroupKey][]models.Finding {
	if p.InQuietHours(now) {
		return nil
	}

	findings := make(map[models.GroupKey][]models.Finding)
	for _, group := range p.groups() {
		if list := p.evaluateGroup(group, now); len(list) > 0 {
			findings[group] = list
		}
	}
	if len(findings) == 0 {
		return nil
	}
	return findings
}

// evaluateGroup runs both classification passes for one group. The first
// pass covers the expected id set, the second every id that has ever
// reported; the flagged set dedupes between them.
func (p *Policy) evaluateGroup(group models.GroupKey, now time.Time) []models.Finding {
	var findings []models.Finding
	flagged := make(map[int]struct{})

	seen := p.store.SeenDevices(group)

	if entry, ok := p.registry.Entry(group.Project, group.NCU); ok {
		for _, id := range entry.ExpectedDevices() {
			lastAt, reported := seen[id]
			if !reported {
				findings = append(findings, models.Finding{
					DeviceID: id,
					Status:   models.StatusNeverReceived,
				})
				flagged[id] = struct{}{}
				continue
			}
			if minutes := elapsedMinutes(now, lastAt); minutes > p.timeoutMinutes {
				findings = append(findings, models.Finding{
					DeviceID:        id,
					Status:          models.StatusTimedOut,
					MinutesInactive: minutes,
				})
				flagged[id] = struct{}{}
			}
		}
	}

	for id, lastAt := range seen {
		if _, done := flagged[id]; done {
			continue
		}
		if minutes := elapsedMinutes(now, lastAt); minutes > p.timeoutMinutes {
			findings = append(findings, models.Finding{
				DeviceID:        id,
				Status:          models.StatusTimedOut,
				MinutesInactive: minutes,
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		return findings[i].DeviceID < findings[j].DeviceID
	})
	return findings
}

// groups is the union of configured groups and groups that have reported.
func (p *Policy) groups() []models.GroupKey {
	unique := make(map[models.GroupKey]struct{})
	var keys []models.GroupKey
	for _, k := range p.registry.Groups() {
		if _, ok := unique[k]; !ok {
			unique[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, k := range p.store.Groups() {
		if _, ok := unique[k]; !ok {
			unique[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// elapsedMinutes truncates toward zero, so a device is timed out only once a
// full minute past the threshold has elapsed (strict >).
func elapsedMinutes(now, last time.Time) int {
	return int(now.Sub(last).Minutes())
}
