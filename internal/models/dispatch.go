package models

import "time"

// DispatchKind labels what a queued notification carries.
type DispatchKind string

const (
	DispatchInactivityAlert DispatchKind = "inactivity_alert"
	DispatchStatusReport    DispatchKind = "status_report"
	DispatchDailySummary    DispatchKind = "daily_summary"
	DispatchStartup         DispatchKind = "startup"
	DispatchTransportAlert  DispatchKind = "transport_alert"
)

// Dispatch is one notification queued for delivery. Emergency dispatches
// additionally fan out to the configured emergency contacts.
type Dispatch struct {
	RequestID string       `json:"request_id"`
	Kind      DispatchKind `json:"kind"`
	Body      string       `json:"body"`
	Emergency bool         `json:"emergency"`
	CreatedAt time.Time    `json:"created_at"`
}

// SendResult records the outcome of one recipient in a dispatch batch. A
// failed recipient never aborts the rest of the batch.
type SendResult struct {
	Recipient string `json:"recipient"`
	ChatID    int64  `json:"chat_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}
