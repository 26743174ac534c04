package models

import (
	"fmt"
	"time"
)

// GroupKey identifies one NCU within a project.
type GroupKey struct {
	Project string `json:"project"`
	NCU     string `json:"ncu"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%s", k.Project, k.NCU)
}

// TelemetryEvent is one decoded TCU status message. It is transient: the
// engine records LastSeen into the liveness store, appends a communications
// log line, and discards the event.
type TelemetryEvent struct {
	Project    string    `json:"project"`
	NCU        string    `json:"ncu"`
	DeviceID   int       `json:"device_id"`
	ReceivedAt time.Time `json:"received_at"`
	RawPayload string    `json:"raw_payload,omitempty"`
}

func (e TelemetryEvent) Group() GroupKey {
	return GroupKey{Project: e.Project, NCU: e.NCU}
}
