package rpc

import (
	"encoding/json"
	"log"

	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// Publisher streams committed events to WebSocket subscribers. It implements
// tx.EventSink so the engine can feed it directly.
type Publisher struct {
	manager *rpc_types.SubscriptionManager
}

// NewPublisher creates a new Publisher with the given subscription manager
func NewPublisher(manager *rpc_types.SubscriptionManager) *Publisher {
	return &Publisher{manager: manager}
}

// Publish broadcasts each event to stream, all-events and account subscribers
func (p *Publisher) Publish(events []tx.Event) {
	if p.manager == nil {
		return
	}
	for _, ev := range events {
		data, err := json.Marshal(rpc_types.NewEventMessage(ev))
		if err != nil {
			log.Printf("Failed to marshal event %d: %v", ev.Sequence, err)
			continue
		}
		p.manager.BroadcastEvent(ev, data)
	}
}

// GetSubscriberCount returns the number of active subscribers for a stream type
func (p *Publisher) GetSubscriberCount(streamType rpc_types.SubscriptionType) int {
	return p.manager.GetSubscriberCount(streamType)
}
