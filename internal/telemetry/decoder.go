package telemetry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tcu-monitor/internal/models"
)

// payloadPrefix is the frame sentinel every TCU status message starts with.
const payloadPrefix = "#M1,"

var deviceIDPattern = regexp.MustCompile(`^\d+$`)

// Decoder turns raw MQTT (topic, payload) pairs into telemetry events.
// Events are stamped with the wall-clock receive time in the monitoring
// timezone; the payload carries no trusted timestamp of its own.
type Decoder struct {
	tz *time.Location
}

func NewDecoder(tz *time.Location) *Decoder {
	return &Decoder{tz: tz}
}

// Decode parses one inbound message. Any failure is terminal for the
// message: the caller logs it and drops it.
func (d *Decoder) Decode(topic string, payload []byte) (models.TelemetryEvent, error) {
	project, ncu, err := ParseTopic(topic)
	if err != nil {
		return models.TelemetryEvent{}, err
	}
	deviceID, raw, err := ParsePayload(payload)
	if err != nil {
		return models.TelemetryEvent{}, fmt.Errorf("topic %s: %w", topic, err)
	}
	return models.TelemetryEvent{
		Project:    project,
		NCU:        ncu,
		DeviceID:   deviceID,
		ReceivedAt: time.Now().In(d.tz),
		RawPayload: raw,
	}, nil
}

// ParseTopic extracts the project and NCU from a status topic. The second
// topic segment carries both, joined on the last "_" if one is present, else
// the last "-". Splitting on the last separator keeps NCU names like
// "2172-B" intact.
func ParseTopic(topic string) (string, string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid topic format: %s", topic)
	}

	composite := parts[1]
	sep := strings.LastIndex(composite, "_")
	if sep < 0 {
		sep = strings.LastIndex(composite, "-")
	}
	if sep <= 0 || sep == len(composite)-1 {
		return "", "", fmt.Errorf("topic segment %q has no project/NCU separator", composite)
	}
	return composite[:sep], composite[sep+1:], nil
}

// ParsePayload extracts the device id from a "#M1,<id>,..." frame. It
// returns the trimmed frame text for the communications log.
func ParsePayload(payload []byte) (int, string, error) {
	msg := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(msg, payloadPrefix) {
		return 0, "", fmt.Errorf("payload missing %q prefix", payloadPrefix)
	}

	parts := strings.Split(msg, ",")
	if len(parts) < 3 {
		return 0, "", fmt.Errorf("payload has %d fields, want at least 3", len(parts))
	}

	field := strings.TrimSpace(parts[1])
	if !deviceIDPattern.MatchString(field) {
		return 0, "", fmt.Errorf("invalid device id field %q", field)
	}
	deviceID, err := strconv.Atoi(field)
	if err != nil {
		return 0, "", fmt.Errorf("invalid device id field %q: %w", field, err)
	}
	return deviceID, msg, nil
}
