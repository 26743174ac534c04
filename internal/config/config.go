package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"tcu-monitor/internal/models"
)

// Config holds application configuration loaded from environment.
type Config struct {
	MQTT struct {
		Broker   string
		Username string
		Password string
		ClientID string
		Topics   []string
	}
	Telegram struct {
		BotToken          string
		Groups            map[string]int64 // group name -> chat id
		AlertGroups       []string
		EmergencyContacts []int64
		RatePerMinute     int
	}
	Monitor struct {
		TimeoutMinutes       int
		CheckIntervalMinutes int
		QuietHoursStart      int
		QuietHoursEnd        int
		DailySummaryHour     int
		DailySummaryMinute   int
		Timezone             *time.Location
		ReportTimezone       *time.Location
	}
	Logging struct {
		Dir   string
		Level string
	}
	API struct {
		Port string
	}
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Notifier struct {
		QueueSize int
	}
	Registry models.Registry
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// MQTT settings
	cfg.MQTT.Broker = os.Getenv("MQTT_BROKER")
	cfg.MQTT.Username = os.Getenv("MQTT_USERNAME")
	cfg.MQTT.Password = os.Getenv("MQTT_PASSWORD")
	cfg.MQTT.ClientID = os.Getenv("MQTT_CLIENT_ID")
	if topics := os.Getenv("MQTT_TOPICS"); topics != "" {
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.MQTT.Topics = append(cfg.MQTT.Topics, t)
			}
		}
	}

	// Telegram settings
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	groups, err := parseGroups(os.Getenv("TELEGRAM_GROUPS"))
	if err != nil {
		return Config{}, err
	}
	cfg.Telegram.Groups = groups
	if names := os.Getenv("ALERT_GROUPS"); names != "" {
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				cfg.Telegram.AlertGroups = append(cfg.Telegram.AlertGroups, n)
			}
		}
	}
	if contacts := os.Getenv("EMERGENCY_CONTACTS"); contacts != "" {
		for _, c := range strings.Split(contacts, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("invalid EMERGENCY_CONTACTS entry %q: %w", c, err)
			}
			cfg.Telegram.EmergencyContacts = append(cfg.Telegram.EmergencyContacts, id)
		}
	}
	if r, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_PER_MINUTE")); err == nil {
		cfg.Telegram.RatePerMinute = r
	}

	// Monitor settings
	if t, err := strconv.Atoi(os.Getenv("TIMEOUT_MINUTES")); err == nil {
		cfg.Monitor.TimeoutMinutes = t
	}
	if c, err := strconv.Atoi(os.Getenv("CHECK_INTERVAL_MINUTES")); err == nil {
		cfg.Monitor.CheckIntervalMinutes = c
	}
	cfg.Monitor.QuietHoursStart = -1
	cfg.Monitor.QuietHoursEnd = -1
	if h, err := strconv.Atoi(os.Getenv("QUIET_HOURS_START")); err == nil {
		cfg.Monitor.QuietHoursStart = h
	}
	if h, err := strconv.Atoi(os.Getenv("QUIET_HOURS_END")); err == nil {
		cfg.Monitor.QuietHoursEnd = h
	}

	// Logging settings
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")

	// Optional collaborators
	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	if qs, err := strconv.Atoi(os.Getenv("NOTIFIER_QUEUE_SIZE")); err == nil {
		cfg.Notifier.QueueSize = qs
	}

	// Validate required settings
	missing := []string{}
	if cfg.MQTT.Broker == "" {
		missing = append(missing, "MQTT_BROKER")
	}
	if len(cfg.MQTT.Topics) == 0 {
		missing = append(missing, "MQTT_TOPICS")
	}
	registryFile := os.Getenv("REGISTRY_FILE")
	if registryFile == "" {
		missing = append(missing, "REGISTRY_FILE")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	registry, err := loadRegistry(registryFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Registry = registry

	// Timezones
	monitorTZ := os.Getenv("MONITOR_TIMEZONE")
	if monitorTZ == "" {
		monitorTZ = "Asia/Kolkata"
	}
	if cfg.Monitor.Timezone, err = time.LoadLocation(monitorTZ); err != nil {
		return Config{}, fmt.Errorf("invalid MONITOR_TIMEZONE %q: %w", monitorTZ, err)
	}
	reportTZ := os.Getenv("REPORT_TIMEZONE")
	if reportTZ == "" {
		reportTZ = "UTC"
	}
	if cfg.Monitor.ReportTimezone, err = time.LoadLocation(reportTZ); err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", reportTZ, err)
	}

	// Daily summary time
	summaryAt := os.Getenv("DAILY_SUMMARY_AT")
	if summaryAt == "" {
		summaryAt = "09:00"
	}
	if cfg.Monitor.DailySummaryHour, cfg.Monitor.DailySummaryMinute, err = parseClock(summaryAt); err != nil {
		return Config{}, err
	}

	// Apply defaults
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "tcu-monitor"
	}
	if cfg.Monitor.TimeoutMinutes == 0 {
		cfg.Monitor.TimeoutMinutes = 30
	}
	if cfg.Monitor.CheckIntervalMinutes == 0 {
		cfg.Monitor.CheckIntervalMinutes = 10
	}
	if cfg.Monitor.QuietHoursStart < 0 {
		cfg.Monitor.QuietHoursStart = 19
	}
	if cfg.Monitor.QuietHoursEnd < 0 {
		cfg.Monitor.QuietHoursEnd = 6
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.Notifier.QueueSize == 0 {
		cfg.Notifier.QueueSize = 100
	}
	if cfg.Telegram.RatePerMinute == 0 {
		cfg.Telegram.RatePerMinute = 20
	}

	return cfg, nil
}

// loadRegistry reads the per-(project, NCU) fleet registry from a JSON file.
func loadRegistry(path string) (models.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}
	var registry models.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", path, err)
	}
	if len(registry) == 0 {
		return nil, fmt.Errorf("registry file %s defines no projects", path)
	}
	return registry, nil
}

// parseGroups parses "name=chatid" pairs separated by commas.
func parseGroups(raw string) (map[string]int64, error) {
	groups := make(map[string]int64)
	if raw == "" {
		return groups, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, idStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid TELEGRAM_GROUPS entry %q, want name=chatid", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id in TELEGRAM_GROUPS entry %q: %w", pair, err)
		}
		groups[strings.TrimSpace(name)] = id
	}
	return groups, nil
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid DAILY_SUMMARY_AT %q, want HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in DAILY_SUMMARY_AT %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in DAILY_SUMMARY_AT %q", raw)
	}
	return hour, minute, nil
}
