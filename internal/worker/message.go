package worker

import (
	"context"
	"encoding/json"

	"github.com/agrotrace/agrobio-go/internal/logger"
)

// MessageTypeQueueSync asks the worker to defer a mutation for replay.
const MessageTypeQueueSync = "QUEUE_SYNC"

// Message is the application-to-worker protocol envelope. Fire-and-forget:
// no acknowledgment is defined.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandleMessage dispatches one application message. Messages that do not
// match a known type, or whose payload does not decode, are silently
// ignored per the protocol.
func (q *SyncQueue) HandleMessage(ctx context.Context, msg Message) {
	if msg.Type != MessageTypeQueueSync {
		return
	}
	var payload MutationPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		q.log.Debug("ignoring malformed queue message", logger.Error(err))
		return
	}
	if err := q.Enqueue(ctx, payload); err != nil {
		q.log.Debug("ignoring unqueueable message", logger.Error(err))
	}
}
