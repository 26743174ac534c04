package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tcu-monitor/internal/config"
	"tcu-monitor/internal/logging"
	"tcu-monitor/internal/logstream"
	"tcu-monitor/internal/models"
	"tcu-monitor/internal/utils"
)

// LogSink receives per-recipient failure lines on the dispatch error stream.
type LogSink interface {
	Append(stream, line string) error
}

// Archive optionally persists dispatch outcomes. Nil when no database is
// configured; never read back by the engine.
type Archive interface {
	RecordDispatch(ctx context.Context, d models.Dispatch, results []models.SendResult) error
}

// Service delivers queued dispatches to the configured chat groups and, for
// emergency dispatches, the emergency contacts. Delivery runs on its own
// worker so slow sends never delay telemetry ingestion.
type Service struct {
	cfg     config.Config
	logger  *logging.Logger
	sender  Sender
	sink    LogSink
	archive Archive

	tasks  chan models.Dispatch
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// New constructs the dispatch service.
func New(cfg config.Config, logger *logging.Logger, sender Sender, sink LogSink) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:    cfg,
		logger: logger,
		sender: sender,
		sink:   sink,
		tasks:  make(chan models.Dispatch, cfg.Notifier.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetArchive attaches the optional dispatch archive.
func (s *Service) SetArchive(a Archive) { s.archive = a }

// Start launches the delivery worker. A single worker keeps batch sends
// sequential so the rate limiter's inter-message spacing holds.
func (s *Service) Start(wg *sync.WaitGroup) {
	s.wg = wg
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				s.logger.Infof("Notifier worker stopped")
				return
			case task := <-s.tasks:
				s.handleDispatch(task)
			}
		}
	}()
}

// Stop cancels the worker; an in-flight batch finishes or is abandoned.
func (s *Service) Stop() {
	s.cancel()
}

// Queue enqueues a dispatch without blocking. Drops with an error log when
// the queue is full.
func (s *Service) Queue(d models.Dispatch) {
	select {
	case s.tasks <- d:
		s.logger.Infof("Queued dispatch: kind=%s request_id=%s", d.Kind, d.RequestID)
	default:
		s.logger.Errorf("Dispatch queue full, dropping: kind=%s request_id=%s", d.Kind, d.RequestID)
	}
}

// handleDispatch fans one dispatch out to every recipient, collecting
// per-recipient results. A failed recipient never aborts the batch.
func (s *Service) handleDispatch(d models.Dispatch) {
	if s.sender == nil {
		s.logger.Warnf("No sender configured, skipping dispatch %s", d.RequestID)
		return
	}

	var results []models.SendResult

	for _, name := range s.cfg.Telegram.AlertGroups {
		chatID, ok := s.cfg.Telegram.Groups[name]
		if !ok {
			s.logger.Warnf("Alert group %q has no configured chat id, skipping", name)
			results = append(results, models.SendResult{
				Recipient: name,
				Error:     "no chat id configured",
			})
			continue
		}
		results = append(results, s.send(name, chatID, d.Body))
	}

	if d.Emergency {
		for _, chatID := range s.cfg.Telegram.EmergencyContacts {
			results = append(results, s.send(fmt.Sprintf("contact:%d", chatID), chatID, d.Body))
		}
	}

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			continue
		}
		failed++
		line := fmt.Sprintf("dispatch %s (%s) to %s failed: %s", d.RequestID, d.Kind, r.Recipient, r.Error)
		if err := s.sink.Append(logstream.StreamDispatchErrors, line); err != nil {
			s.logger.Warnf("Dispatch error log append failed: %v", err)
		}
	}
	s.logger.Infof("Dispatch %s (%s) delivered: %d ok, %d failed", d.RequestID, d.Kind, success, failed)

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.RecordDispatch(ctx, d, results); err != nil {
			s.logger.Errorf("Dispatch archive failed for %s: %v", d.RequestID, err)
		}
	}
}

func (s *Service) send(recipient string, chatID int64, body string) models.SendResult {
	err := utils.Retry(s.logger, 3, time.Second, func() error {
		return s.sender.Send(s.ctx, chatID, body)
	})
	result := models.SendResult{Recipient: recipient, ChatID: chatID, Success: err == nil}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
