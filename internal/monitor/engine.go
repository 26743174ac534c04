package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"tcu-monitor/internal/config"
	"tcu-monitor/internal/logging"
	"tcu-monitor/internal/logstream"
	"tcu-monitor/internal/models"
)

// LogSink is the append-only report/communications log collaborator.
type LogSink interface {
	Append(stream, line string) error
}

// Notifier is the outbound notification collaborator. Queue must not block;
// delivery is best-effort and decoupled from ingestion.
type Notifier interface {
	Queue(d models.Dispatch)
}

// Publisher exports report events to an external bus. Optional.
type Publisher interface {
	Publish(kind string, payload interface{})
}

// Broadcaster pushes live events to connected dashboards. Optional.
type Broadcaster interface {
	Broadcast(payload interface{})
}

// Engine owns the liveness store and drives every evaluation. Telemetry
// events enter through a single buffered channel so transport callback
// timing never couples to store mutation timing.
type Engine struct {
	cfg      config.Config
	logger   *logging.Logger
	store    *Store
	policy   *Policy
	sink     LogSink
	notifier Notifier

	publisher   Publisher
	broadcaster Broadcaster

	events    chan models.TelemetryEvent
	ctx       context.Context
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
	startedAt time.Time
}

// NewEngine constructs the engine. Publisher and broadcaster are optional
// and attached with the setters before Start.
func NewEngine(cfg config.Config, logger *logging.Logger, sink LogSink, notifier Notifier) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewStore()
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		policy:   NewPolicy(store, cfg.Registry, cfg.Monitor.TimeoutMinutes, cfg.Monitor.QuietHoursStart, cfg.Monitor.QuietHoursEnd),
		sink:     sink,
		notifier: notifier,
		events:   make(chan models.TelemetryEvent, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (e *Engine) SetPublisher(p Publisher)     { e.publisher = p }
func (e *Engine) SetBroadcaster(b Broadcaster) { e.broadcaster = b }

// Store exposes the liveness store for read-only consumers (the API).
func (e *Engine) Store() *Store { return e.store }

// Registry exposes the static fleet registry.
func (e *Engine) Registry() models.Registry { return e.cfg.Registry }

// Start launches the event consumer loop.
func (e *Engine) Start(wg *sync.WaitGroup) {
	e.wg = wg
	e.startedAt = time.Now()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-e.ctx.Done():
				e.logger.Infof("Engine consumer stopped")
				return
			case ev := <-e.events:
				e.handleEvent(ev)
			}
		}
	}()
}

// Stop cancels the consumer loop and timer-fired runs.
func (e *Engine) Stop() {
	e.cancel()
}

// QueueEvent enqueues a decoded telemetry event. Drops with an error log
// when the buffer is full rather than blocking the transport callback.
func (e *Engine) QueueEvent(ev models.TelemetryEvent) {
	select {
	case e.events <- ev:
	default:
		e.logger.Errorf("Event queue full, dropping event for %s TCU-%d", ev.Group(), ev.DeviceID)
	}
}

// handleEvent records the sighting and appends the communications log line.
func (e *Engine) handleEvent(ev models.TelemetryEvent) {
	e.store.RecordSeen(ev.Group(), ev.DeviceID, ev.ReceivedAt)

	stream := ev.Project + "_" + ev.NCU + "_communications"
	line := fmt.Sprintf("TCU-%d communication received at %s", ev.DeviceID,
		ev.ReceivedAt.In(e.cfg.Monitor.ReportTimezone).Format("2006-01-02 15:04:05 MST"))
	if err := e.sink.Append(stream, line); err != nil {
		e.logger.Warnf("Communications log append failed: %v", err)
	}

	if e.broadcaster != nil {
		e.broadcaster.Broadcast(map[string]interface{}{"type": "telemetry", "event": ev})
	}
}

// RunInactivityCheck evaluates the policy once and dispatches an alert when
// any device is inactive. Suppressed entirely during quiet hours.
func (e *Engine) RunInactivityCheck() {
	now := time.Now().In(e.cfg.Monitor.Timezone)

	findings := e.policy.Evaluate(now)
	if findings == nil {
		if e.policy.InQuietHours(now) {
			e.logger.Debugf("Inactivity check paused during quiet hours")
		} else {
			e.logger.Infof("All TCUs active, no inactivity findings")
		}
		return
	}

	report := BuildInactivityReport(findings, now, e.cfg.Monitor.TimeoutMinutes, e.cfg.Monitor.CheckIntervalMinutes)
	for _, line := range RenderInactivityLog(report) {
		if err := e.sink.Append(logstream.StreamInactive, line); err != nil {
			e.logger.Warnf("Inactivity log append failed: %v", err)
		}
	}

	e.notifier.Queue(models.Dispatch{
		RequestID: uuid.New().String(),
		Kind:      models.DispatchInactivityAlert,
		Body:      RenderInactivityAlert(report),
		Emergency: true,
		CreatedAt: now,
	})
	e.emit("inactivity_alert", report)
	e.logger.Infof("Inactivity alert dispatched: %d inactive across %d groups", report.TotalInactive, len(report.Groups))
}

// RunStatusReport writes the hourly full fleet report to its stream. Runs
// regardless of quiet hours.
func (e *Engine) RunStatusReport() {
	now := time.Now().In(e.cfg.Monitor.Timezone)
	report := BuildStatusReport(e.store, e.cfg.Registry, now, e.cfg.Monitor.TimeoutMinutes, e.Uptime())

	for _, line := range RenderStatusLog(report, e.cfg.Monitor.ReportTimezone) {
		if err := e.sink.Append(logstream.StreamStatusReport, line); err != nil {
			e.logger.Warnf("Status log append failed: %v", err)
		}
	}
	e.emit("status_report", report)
	e.logger.Infof("Status report generated: %d/%d active (%.1f%%)",
		report.Overall.Active, report.Overall.Total, report.Overall.ActivePercent())
}

// RunDailySummary dispatches the coarse daily aggregate to the channel. It
// is not written to the detailed report streams.
func (e *Engine) RunDailySummary() {
	now := time.Now().In(e.cfg.Monitor.Timezone)
	summary := BuildDailySummary(e.store, e.cfg.Registry, now, e.cfg.Monitor.TimeoutMinutes)

	e.notifier.Queue(models.Dispatch{
		RequestID: uuid.New().String(),
		Kind:      models.DispatchDailySummary,
		Body: RenderDailySummary(summary,
			e.cfg.Monitor.TimeoutMinutes, e.cfg.Monitor.CheckIntervalMinutes,
			e.cfg.Monitor.QuietHoursStart, e.cfg.Monitor.QuietHoursEnd),
		CreatedAt: now,
	})
	e.emit("daily_summary", summary)
	e.logger.Infof("Daily summary dispatched: %.1f%% active", summary.Overall.ActivePercent())
}

// Status builds a point-in-time fleet report for the read API.
func (e *Engine) Status() models.StatusReport {
	now := time.Now().In(e.cfg.Monitor.Timezone)
	return BuildStatusReport(e.store, e.cfg.Registry, now, e.cfg.Monitor.TimeoutMinutes, e.Uptime())
}

// NotifyStartup announces the monitor and its configuration on the channel.
func (e *Engine) NotifyStartup() {
	now := time.Now().In(e.cfg.Monitor.Timezone)
	e.notifier.Queue(models.Dispatch{
		RequestID: uuid.New().String(),
		Kind:      models.DispatchStartup,
		Body: RenderStartup(now, len(e.cfg.Registry), len(e.cfg.MQTT.Topics),
			e.cfg.Monitor.TimeoutMinutes, e.cfg.Monitor.CheckIntervalMinutes),
		CreatedAt: now,
	})
}

// NotifyTransport raises a best-effort connectivity alert. The engine keeps
// evaluating on stale data while the transport reconnects.
func (e *Engine) NotifyTransport(reason string) {
	now := time.Now().In(e.cfg.Monitor.Timezone)
	e.notifier.Queue(models.Dispatch{
		RequestID: uuid.New().String(),
		Kind:      models.DispatchTransportAlert,
		Body:      RenderTransportAlert(now, reason),
		Emergency: true,
		CreatedAt: now,
	})
}

// Uptime reports how long the engine has been running.
func (e *Engine) Uptime() time.Duration {
	if e.startedAt.IsZero() {
		return 0
	}
	return time.Since(e.startedAt)
}

func (e *Engine) emit(kind string, payload interface{}) {
	if e.publisher != nil {
		e.publisher.Publish(kind, payload)
	}
	if e.broadcaster != nil {
		e.broadcaster.Broadcast(map[string]interface{}{"type": kind, "payload": payload})
	}
}
