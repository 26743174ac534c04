package monitor

import (
	"sort"
	"time"

	"tcu-monitor/internal/models"
)

// BuildInactivityReport assembles the immediate alert from policy findings.
// Callers only render it when at least one group has findings.
func BuildInactivityReport(findings map[models.GroupKey][]models.Finding, now time.Time, timeoutMinutes, checkIntervalMinutes int) models.InactivityReport {
	report := models.InactivityReport{
		GeneratedAt:    now,
		TimeoutMinutes: timeoutMinutes,
		NextCheckIn:    time.Duration(checkIntervalMinutes) * time.Minute,
	}

	keys := make([]models.GroupKey, 0, len(findings))
	for k := range findings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Project != keys[j].Project {
			return keys[i].Project < keys[j].Project
		}
		return keys[i].NCU < keys[j].NCU
	})

	for _, k := range keys {
		report.Groups = append(report.Groups, models.GroupFindings{Group: k, Findings: findings[k]})
		report.TotalInactive += len(findings[k])
	}
	return report
}

// BuildStatusReport computes the full fleet partition for every configured
// group: Active (seen within the timeout), Inactive (seen but stale), and
// NeverReceived. It always runs, quiet hours do not apply.
func BuildStatusReport(store *Store, registry models.Registry, now time.Time, timeoutMinutes int, uptime time.Duration) models.StatusReport {
	report := models.StatusReport{
		GeneratedAt: now,
		Uptime:      uptime,
		NextCheckAt: now.Add(time.Hour),
	}

	for _, group := range registry.Groups() {
		entry, _ := registry.Entry(group.Project, group.NCU)
		gs := buildGroupStatus(store, group, entry, now, timeoutMinutes)
		report.Groups = append(report.Groups, gs)

		report.Overall.Total += len(gs.Active) + len(gs.Inactive) + len(gs.NeverReceived)
		report.Overall.Active += len(gs.Active)
		report.Overall.Inactive += len(gs.Inactive)
		report.Overall.NeverReceived += len(gs.NeverReceived)
	}
	return report
}

func buildGroupStatus(store *Store, group models.GroupKey, entry models.RegistryEntry, now time.Time, timeoutMinutes int) models.GroupStatus {
	gs := models.GroupStatus{
		Group:         group,
		TotalExpected: entry.TotalDevices,
	}

	seen := store.SeenDevices(group)
	for _, id := range store.AllKnownDeviceIDs(group, entry) {
		lastAt, reported := seen[id]
		if !reported {
			gs.NeverReceived = append(gs.NeverReceived, id)
			continue
		}
		ds := models.DeviceStatus{
			DeviceID:         id,
			LastSeenAt:       lastAt,
			MinutesSinceLast: elapsedMinutes(now, lastAt),
		}
		if ds.MinutesSinceLast <= timeoutMinutes {
			gs.Active = append(gs.Active, ds)
		} else {
			gs.Inactive = append(gs.Inactive, ds)
		}
	}

	total := len(gs.Active) + len(gs.Inactive) + len(gs.NeverReceived)
	if total > 0 {
		gs.ActivePercent = float64(len(gs.Active)) / float64(total) * 100
	}
	return gs
}

// BuildDailySummary collapses the status partition into global counts.
func BuildDailySummary(store *Store, registry models.Registry, now time.Time, timeoutMinutes int) models.DailySummary {
	summary := models.DailySummary{GeneratedAt: now}

	for _, group := range registry.Groups() {
		entry, _ := registry.Entry(group.Project, group.NCU)
		seen := store.SeenDevices(group)
		for _, id := range store.AllKnownDeviceIDs(group, entry) {
			summary.Overall.Total++
			lastAt, reported := seen[id]
			switch {
			case !reported:
				summary.Overall.NeverReceived++
			case elapsedMinutes(now, lastAt) <= timeoutMinutes:
				summary.Overall.Active++
			default:
				summary.Overall.Inactive++
			}
		}
	}
	return summary
}
