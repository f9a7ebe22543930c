package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StartPublisherPool launches numWorkers goroutines draining the event
// queue and publishing to Redis pub/sub. Each goroutine blocks on BRPOP —
// zero CPU when idle.
func StartPublisherPool(ctx context.Context, rdb *redis.Client, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runPublisher(ctx, rdb, i)
	}
	log.Info().Msgf("event publisher pool started with %d workers", numWorkers)
}

func runPublisher(ctx context.Context, rdb *redis.Client, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("publisher %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queueEvents).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			publish(ctx, rdb, result[1])
		}
	}
}

func publish(ctx context.Context, rdb *redis.Client, raw string) {
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal broadcast event")
		return
	}
	if err := rdb.Publish(ctx, ev.Channel, []byte(ev.Payload)).Err(); err != nil {
		// Fire-and-forget: log and move on, never retry.
		log.Error().Str("channel", ev.Channel).Err(err).Msg("failed to publish event")
	}
}
