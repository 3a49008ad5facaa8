// Package events publishes complaint lifecycle events to the configured
// message queue. Delivery of notifications (email etc.) is out of scope
// here; downstream consumers subscribe to the channel on their own.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/civitrack/apiserver/internal/mq"
	"github.com/civitrack/apiserver/types"
)

// Channel is the queue/topic complaint events are published to.
const Channel = "complaint-events"

// Event types.
const (
	TypeLodged   = "complaint.lodged"
	TypeAssigned = "complaint.assigned"
	TypeUpdated  = "complaint.updated"
)

// Event is the JSON payload published for each lifecycle change.
type Event struct {
	Type        string       `json:"type"`
	ComplaintID int          `json:"complaint_id"`
	Status      types.Status `json:"status"`
	ActorID     int          `json:"actor_id"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Publisher emits lifecycle events. A nil Publisher is valid and
// publishes nothing, so the queue stays optional. Publish failures are
// logged and never fail the request that caused them.
type Publisher struct {
	mq     *mq.MQ
	logger *slog.Logger
}

// NewPublisher constructs a Publisher over the given queue.
func NewPublisher(queue *mq.MQ, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{mq: queue, logger: logger}
}

// Publish emits one event, best effort.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.mq == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal lifecycle event", "type", event.Type, "error", err)
		return
	}

	attrs := map[string]string{"type": event.Type}
	if _, err := p.mq.Publish(ctx, Channel, data, attrs); err != nil {
		p.logger.Warn("publish lifecycle event",
			"type", event.Type,
			"complaint_id", event.ComplaintID,
			"error", err,
		)
	}
}
