package monitor

import (
	"fmt"
	"strings"
	"time"

	"tcu-monitor/internal/models"
)

const messageTimeFormat = "02/01/2006 15:04:05 MST"

// RenderInactivityAlert formats the alert message sent to the notification
// channel. Markdown bold markers match what the chat platform renders.
func RenderInactivityAlert(r models.InactivityReport) string {
	var b strings.Builder
	b.WriteString("*INACTIVE TCU ALERT*\n\n")
	fmt.Fprintf(&b, "Time: %s\n\n", r.GeneratedAt.Format(messageTimeFormat))

	for _, gf := range r.Groups {
		fmt.Fprintf(&b, "*Project:* %s\n", strings.ToUpper(gf.Group.Project))
		fmt.Fprintf(&b, "*NCU:* %s\n", gf.Group.NCU)
		b.WriteString("*Inactive TCUs:*\n")
		for _, f := range gf.Findings {
			if f.Status == models.StatusNeverReceived {
				fmt.Fprintf(&b, "  - TCU-%d: NEVER RECEIVED\n", f.DeviceID)
			} else {
				fmt.Fprintf(&b, "  - TCU-%d: %d min ago\n", f.DeviceID, f.MinutesInactive)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "*Total Inactive:* %d TCUs\n", r.TotalInactive)
	fmt.Fprintf(&b, "*Timeout Limit:* %d minutes\n\n", r.TimeoutMinutes)
	fmt.Fprintf(&b, "Next check in %d minutes", int(r.NextCheckIn.Minutes()))
	return b.String()
}

// RenderInactivityLog formats the alert for the report stream, one line per
// append. The stream writer stamps each line itself.
func RenderInactivityLog(r models.InactivityReport) []string {
	lines := []string{"=== INACTIVE TCU REPORT ==="}
	for _, gf := range r.Groups {
		lines = append(lines, fmt.Sprintf("Project: %s, NCU: %s", gf.Group.Project, gf.Group.NCU))
		for _, f := range gf.Findings {
			if f.Status == models.StatusNeverReceived {
				lines = append(lines, fmt.Sprintf("  TCU-%d: NEVER RECEIVED DATA", f.DeviceID))
			} else {
				lines = append(lines, fmt.Sprintf("  TCU-%d: TIMEOUT (%d min)", f.DeviceID, f.MinutesInactive))
			}
		}
	}
	return append(lines, "=== END REPORT ===")
}

// RenderStatusLog formats the hourly status report for its stream.
func RenderStatusLog(r models.StatusReport, tz *time.Location) []string {
	lines := []string{"=== HOURLY STATUS REPORT ==="}

	for _, gs := range r.Groups {
		lines = append(lines,
			fmt.Sprintf("Project: %s, NCU: %s", strings.ToUpper(gs.Group.Project), gs.Group.NCU),
			fmt.Sprintf("  Total Expected TCUs: %d", gs.TotalExpected),
		)
		if len(gs.Active) > 0 {
			lines = append(lines, fmt.Sprintf("  ACTIVE TCUs (%d):", len(gs.Active)))
			for _, d := range gs.Active {
				lines = append(lines, fmt.Sprintf("    TCU-%d: Last seen %d min ago (%s)",
					d.DeviceID, d.MinutesSinceLast, d.LastSeenAt.In(tz).Format("15:04:05")))
			}
		}
		if len(gs.Inactive) > 0 {
			lines = append(lines, fmt.Sprintf("  INACTIVE TCUs (%d):", len(gs.Inactive)))
			for _, d := range gs.Inactive {
				lines = append(lines, fmt.Sprintf("    TCU-%d: Inactive for %d min (Last: %s)",
					d.DeviceID, d.MinutesSinceLast, d.LastSeenAt.In(tz).Format("15:04:05")))
			}
		}
		if len(gs.NeverReceived) > 0 {
			lines = append(lines, fmt.Sprintf("  NEVER RECEIVED (%d):", len(gs.NeverReceived)))
			for _, id := range gs.NeverReceived {
				lines = append(lines, fmt.Sprintf("    TCU-%d: No data received", id))
			}
		}
		lines = append(lines, fmt.Sprintf("  Summary: %d Active, %d Inactive, %d Never Received (%.1f%% active)",
			len(gs.Active), len(gs.Inactive), len(gs.NeverReceived), gs.ActivePercent))
	}

	uptimeHours := int(r.Uptime.Hours())
	uptimeMinutes := int(r.Uptime.Minutes()) % 60
	lines = append(lines,
		"OVERALL SUMMARY:",
		fmt.Sprintf("  Total TCUs Monitored: %d", r.Overall.Total),
		fmt.Sprintf("  Active: %d", r.Overall.Active),
		fmt.Sprintf("  Inactive: %d", r.Overall.Inactive),
		fmt.Sprintf("  Never Received: %d", r.Overall.NeverReceived),
		fmt.Sprintf("  Overall Health: %.1f%% Active", r.Overall.ActivePercent()),
		fmt.Sprintf("  System Uptime: %dh %dm", uptimeHours, uptimeMinutes),
		fmt.Sprintf("  Next Check: %s", r.NextCheckAt.In(tz).Format("15:04:05 MST")),
		"=== END STATUS REPORT ===",
	)
	return lines
}

// RenderDailySummary formats the once-a-day channel message.
func RenderDailySummary(s models.DailySummary, timeoutMinutes, checkIntervalMinutes, quietStart, quietEnd int) string {
	var b strings.Builder
	b.WriteString("*DAILY SYSTEM SUMMARY*\n\n")
	fmt.Fprintf(&b, "Date: %s\n", s.GeneratedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Time: %s\n\n", s.GeneratedAt.Format("15:04:05 MST"))
	b.WriteString("*TCU Status Overview:*\n")
	fmt.Fprintf(&b, "Active: %d\n", s.Overall.Active)
	fmt.Fprintf(&b, "Inactive: %d\n", s.Overall.Inactive)
	fmt.Fprintf(&b, "Never Received: %d\n", s.Overall.NeverReceived)
	fmt.Fprintf(&b, "Total Monitored: %d\n\n", s.Overall.Total)
	fmt.Fprintf(&b, "*Overall Health: %.1f%%*\n\n", s.Overall.ActivePercent())
	b.WriteString("*System Info:*\n")
	fmt.Fprintf(&b, "Timeout Limit: %d minutes\n", timeoutMinutes)
	fmt.Fprintf(&b, "Check Interval: %d minutes\n", checkIntervalMinutes)
	fmt.Fprintf(&b, "Quiet Hours: %02d:00 - %02d:00", quietStart, quietEnd)
	return b.String()
}

// RenderStartup formats the boot notification with the active configuration.
func RenderStartup(now time.Time, projects, topics, timeoutMinutes, checkIntervalMinutes int) string {
	var b strings.Builder
	b.WriteString("*TCU Monitor Started*\n\n")
	fmt.Fprintf(&b, "%s\n\n", now.Format(messageTimeFormat))
	b.WriteString("*Configuration:*\n")
	fmt.Fprintf(&b, "- Monitored Projects: %d\n", projects)
	fmt.Fprintf(&b, "- MQTT Topics: %d\n", topics)
	fmt.Fprintf(&b, "- Timeout: %d min\n", timeoutMinutes)
	fmt.Fprintf(&b, "- Check Interval: %d min\n\n", checkIntervalMinutes)
	b.WriteString("System is now monitoring TCUs.")
	return b.String()
}

// RenderTransportAlert formats a best-effort connectivity alert.
func RenderTransportAlert(now time.Time, reason string) string {
	var b strings.Builder
	b.WriteString("*MQTT CONNECTION ERROR*\n\n")
	fmt.Fprintf(&b, "Error: %s\n", reason)
	fmt.Fprintf(&b, "Time: %s\n\n", now.Format(messageTimeFormat))
	b.WriteString("System will attempt to reconnect automatically.")
	return b.String()
}
