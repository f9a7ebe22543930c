// Package worker carries entity-update events from the services to the
// real-time subscribers. Services enqueue AFTER their state change commits;
// a publisher pool drains the queue and fans out over Redis pub/sub. The
// whole pipeline is fire-and-forget — a delivery failure is logged and
// never rolls back the committed change.
package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const queueEvents = "events:broadcast"

// Broadcast channels consumed by the UI.
const (
	ChannelTableUpdated = "table.updated"
	ChannelOrderUpdated = "order.updated"
	ChannelCaixaUpdated = "caixa.updated"
)

// Event is the envelope pushed onto the queue: the channel name and the
// full updated entity.
type Event struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcaster is the publication seam the services write through.
// *Dispatcher is the production implementation.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel string, entity interface{})
}

// NopBroadcaster drops every event. It stands in when no dispatcher is
// wired (seed tools, service tests).
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(context.Context, string, interface{}) {}

// Dispatcher enqueues entity events into a Redis list.
// The publisher pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

var _ Broadcaster = (*Dispatcher)(nil)

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Broadcast enqueues the entity for publication on channel. Errors are
// swallowed after logging: broadcasting must never fail a committed
// operation.
func (d *Dispatcher) Broadcast(ctx context.Context, channel string, entity interface{}) {
	if d == nil || d.rdb == nil {
		return
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		log.Error().Str("channel", channel).Err(err).Msg("failed to marshal broadcast payload")
		return
	}
	encoded, err := json.Marshal(Event{Channel: channel, Payload: payload})
	if err != nil {
		log.Error().Str("channel", channel).Err(err).Msg("failed to marshal broadcast event")
		return
	}
	if err := d.rdb.LPush(ctx, queueEvents, encoded).Err(); err != nil {
		log.Error().Str("channel", channel).Err(err).Msg("failed to enqueue broadcast event")
	}
}
