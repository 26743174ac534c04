package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MQTT_BROKER", "broker.example.com:1883")
	t.Setenv("MQTT_TOPICS", "jsm-pub/+/STATUS")
	t.Setenv("REGISTRY_FILE", writeRegistry(t, `{
		"rabarika": {"2172-B": {"total_tcus": 4}},
		"bhojabedi": {"2240": {"total_tcus": 3, "expected_tcus": [48, 49, 50]}}
	}`))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "broker.example.com:1883", cfg.MQTT.Broker)
	assert.Equal(t, []string{"jsm-pub/+/STATUS"}, cfg.MQTT.Topics)
	assert.Equal(t, "tcu-monitor", cfg.MQTT.ClientID)

	assert.Equal(t, 30, cfg.Monitor.TimeoutMinutes)
	assert.Equal(t, 10, cfg.Monitor.CheckIntervalMinutes)
	assert.Equal(t, 19, cfg.Monitor.QuietHoursStart)
	assert.Equal(t, 6, cfg.Monitor.QuietHoursEnd)
	assert.Equal(t, "Asia/Kolkata", cfg.Monitor.Timezone.String())
	assert.Equal(t, "UTC", cfg.Monitor.ReportTimezone.String())
	assert.Equal(t, 9, cfg.Monitor.DailySummaryHour)
	assert.Equal(t, 0, cfg.Monitor.DailySummaryMinute)

	assert.Equal(t, "logs", cfg.Logging.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.API.Port)
	assert.Equal(t, 100, cfg.Notifier.QueueSize)
	assert.Equal(t, 20, cfg.Telegram.RatePerMinute)
}

func TestLoadRegistry(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	entry, ok := cfg.Registry.Entry("bhojabedi", "2240")
	require.True(t, ok)
	assert.Equal(t, 3, entry.TotalDevices)
	assert.Equal(t, []int{48, 49, 50}, entry.ExpectedIDs)

	entry, ok = cfg.Registry.Entry("rabarika", "2172-B")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4}, entry.ExpectedDevices())

	_, ok = cfg.Registry.Entry("rabarika", "unknown")
	assert.False(t, ok)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("MQTT_TOPICS", "")
	t.Setenv("REGISTRY_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_BROKER")
	assert.Contains(t, err.Error(), "MQTT_TOPICS")
	assert.Contains(t, err.Error(), "REGISTRY_FILE")
}

func TestLoadTelegramGroups(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_GROUPS", "ops=-100123, field=-100456")
	t.Setenv("ALERT_GROUPS", "ops,field")
	t.Setenv("EMERGENCY_CONTACTS", "777, 888")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"ops": -100123, "field": -100456}, cfg.Telegram.Groups)
	assert.Equal(t, []string{"ops", "field"}, cfg.Telegram.AlertGroups)
	assert.Equal(t, []int64{777, 888}, cfg.Telegram.EmergencyContacts)
}

func TestLoadInvalidGroupEntry(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_GROUPS", "ops-100123")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_GROUPS")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEOUT_MINUTES", "45")
	t.Setenv("CHECK_INTERVAL_MINUTES", "5")
	t.Setenv("QUIET_HOURS_START", "0")
	t.Setenv("QUIET_HOURS_END", "0")
	t.Setenv("DAILY_SUMMARY_AT", "18:30")
	t.Setenv("REPORT_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Monitor.TimeoutMinutes)
	assert.Equal(t, 5, cfg.Monitor.CheckIntervalMinutes)
	assert.Equal(t, 0, cfg.Monitor.QuietHoursStart)
	assert.Equal(t, 0, cfg.Monitor.QuietHoursEnd)
	assert.Equal(t, 18, cfg.Monitor.DailySummaryHour)
	assert.Equal(t, 30, cfg.Monitor.DailySummaryMinute)
	assert.Equal(t, "Asia/Kolkata", cfg.Monitor.ReportTimezone.String())
}

func TestLoadBadSummaryClock(t *testing.T) {
	setRequired(t)
	t.Setenv("DAILY_SUMMARY_AT", "25:00")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAILY_SUMMARY_AT")
}

func TestLoadEmptyRegistryRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("REGISTRY_FILE", writeRegistry(t, `{}`))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects")
}
