package models

import "time"

// FindingStatus classifies why a device counts as inactive.
type FindingStatus string

const (
	StatusNeverReceived FindingStatus = "NEVER_RECEIVED"
	StatusTimedOut      FindingStatus = "TIMEOUT"
)

// Finding is one inactive device produced by a policy evaluation. Computed
// fresh every evaluation, never cached. MinutesInactive is meaningful only
// for StatusTimedOut; a never-received device has no finite age.
type Finding struct {
	DeviceID        int           `json:"device_id"`
	Status          FindingStatus `json:"status"`
	MinutesInactive int           `json:"minutes_inactive,omitempty"`
}

// GroupFindings pairs a group with its findings, in stable group order.
type GroupFindings struct {
	Group    GroupKey  `json:"group"`
	Findings []Finding `json:"findings"`
}

// InactivityReport is the immediate alert built from policy output.
type InactivityReport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Groups         []GroupFindings `json:"groups"`
	TotalInactive  int             `json:"total_inactive"`
	TimeoutMinutes int             `json:"timeout_minutes"`
	NextCheckIn    time.Duration   `json:"next_check_in"`
}

// DeviceStatus is one device row in the hourly status report.
type DeviceStatus struct {
	DeviceID         int       `json:"device_id"`
	LastSeenAt       time.Time `json:"last_seen_at,omitempty"`
	MinutesSinceLast int       `json:"minutes_since_last,omitempty"`
}

// GroupStatus partitions one NCU's devices for the hourly status report.
// Active + Inactive + NeverReceived covers every known device id exactly once.
type GroupStatus struct {
	Group         GroupKey       `json:"group"`
	TotalExpected int            `json:"total_expected"`
	Active        []DeviceStatus `json:"active"`
	Inactive      []DeviceStatus `json:"inactive"`
	NeverReceived []int          `json:"never_received"`
	ActivePercent float64        `json:"active_percent"`
}

// Tally is a global device count across all groups.
type Tally struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Inactive      int `json:"inactive"`
	NeverReceived int `json:"never_received"`
}

// ActivePercent is the share of active devices, 0 when the tally is empty.
func (t Tally) ActivePercent() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Active) / float64(t.Total) * 100
}

// StatusReport is the periodic full fleet report.
type StatusReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Groups      []GroupStatus `json:"groups"`
	Overall     Tally         `json:"overall"`
	Uptime      time.Duration `json:"uptime"`
	NextCheckAt time.Time     `json:"next_check_at"`
}

// DailySummary is the coarse once-a-day aggregate sent to the channel.
type DailySummary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Overall     Tally     `json:"overall"`
}
