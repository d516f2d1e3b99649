package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/internal/clinic"
	"github.com/gitlakmal/clinic-system/internal/infrastructure/redpanda"
	"github.com/gitlakmal/clinic-system/internal/observability/metrics"
	"github.com/gitlakmal/clinic-system/pkg/idempotency"
	"github.com/gitlakmal/clinic-system/pkg/workerpool"
)

const handlerName = "rejection-email"

// Handler bridges consumed appointment events to mail delivery: events fan
// out through a worker pool and each delivery runs through the idempotency
// inbox keyed by event id.
type Handler struct {
	pool    *workerpool.Pool
	inbox   *idempotency.Inbox
	mailer  Mailer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHandler creates the event handler. inbox may be nil, which drops the
// exactly-once guarantee down to at-least-once.
func NewHandler(pool *workerpool.Pool, inbox *idempotency.Inbox, mailer Mailer, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		pool:    pool,
		inbox:   inbox,
		mailer:  mailer,
		metrics: m,
		logger:  logger,
	}
}

// HandleMessage is the consumer callback. Returning an error leaves the
// record uncommitted for redelivery; events that owe no mail commit
// immediately.
func (h *Handler) HandleMessage(ctx context.Context, msg *redpanda.ConsumedMessage) error {
	var event clinic.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A payload that never parses would wedge the partition; log and
		// commit instead.
		h.logger.Error("unparseable event, skipping",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}

	if event.EventType != clinic.AppointmentStatusChanged {
		return nil
	}

	var data clinic.AppointmentStatusChangedData
	if err := json.Unmarshal(event.EventData, &data); err != nil {
		h.logger.Error("malformed status change data, skipping",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return nil
	}

	message, owed := RejectionMessage(data)
	if !owed {
		return nil
	}

	task := &workerpool.Task{
		ID:      event.ID,
		Payload: message,
	}
	if err := h.pool.Submit(task); err != nil {
		return fmt.Errorf("submit notification: %w", err)
	}

	h.logger.Info("rejection notification queued",
		zap.String("event_id", event.ID),
		zap.Int64("appointment_id", data.AppointmentID),
	)
	return nil
}

// Deliver is the worker pool function: it sends one queued message under
// the inbox guard.
func (h *Handler) Deliver(ctx context.Context, task *workerpool.Task) *workerpool.Result {
	message, ok := task.Payload.(Message)
	if !ok {
		return &workerpool.Result{TaskID: task.ID, Error: fmt.Errorf("invalid payload type %T", task.Payload)}
	}

	send := func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
		if err := h.mailer.Send(ctx, message); err != nil {
			return nil, err
		}
		return json.RawMessage(`{"delivered":true}`), nil
	}

	var err error
	if h.inbox != nil {
		payload, _ := json.Marshal(message)
		_, err = h.inbox.Process(ctx, idempotency.KeyFor(task.ID, handlerName), handlerName, payload, send)
	} else {
		_, err = send(ctx, nil)
	}

	if errors.Is(err, idempotency.ErrDuplicateMessage) {
		h.logger.Debug("notification already delivered", zap.String("event_id", task.ID))
		return &workerpool.Result{TaskID: task.ID, Success: true}
	}
	if err != nil {
		h.metrics.NotificationsFailed.Inc()
		return &workerpool.Result{TaskID: task.ID, Error: err}
	}

	h.metrics.NotificationsSent.Inc()
	return &workerpool.Result{TaskID: task.ID, Success: true}
}
