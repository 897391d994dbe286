// Package notifier delivers fire-and-forget event messages after ledger
// state transitions. The ledger never depends on delivery succeeding.
package notifier

import (
	"context"
	"encoding/json"

	ws "backend/internal/websocket"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event types
const (
	EventSalePending = "sale_pending"
	EventInvoiceSent = "invoice_sent"
)

// Event is the message handed to a dispatcher.
type Event struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload"`
}

// Dispatcher delivers (or no-ops) an event. Implementations must never
// block the caller on delivery problems.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// HubDispatcher broadcasts events to connected websocket dashboards and
// logs them. Stands in for an outbound email/notification channel.
type HubDispatcher struct {
	hub *ws.Hub
	log zerolog.Logger
}

func NewHubDispatcher(hub *ws.Hub) *HubDispatcher {
	return &HubDispatcher{hub: hub, log: log.With().Str("component", "notifier").Logger()}
}

func (d *HubDispatcher) Dispatch(_ context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.log.Warn().Err(err).Str("type", event.Type).Msg("dropping undeliverable event")
		return
	}

	select {
	case d.hub.Broadcast <- payload:
	default:
		// No listeners, or the hub is backed up. Drop rather than block.
	}
	d.log.Info().Str("type", event.Type).Str("recipient", event.Recipient).Msg("event dispatched")
}

// NopDispatcher discards every event. Used in tests and when no hub is wired.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Event) {}
