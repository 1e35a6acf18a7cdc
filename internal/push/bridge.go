package push

import (
	"context"
	"encoding/json"
	"errors"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Bridge consumes redis pub/sub and replays events into the local hub so
// users connected to this instance receive pushes published anywhere.
type Bridge struct {
	hub    *Hub
	client *redis.Client
	log    *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

type BridgeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Hub       *Hub
	Client    *redis.Client
	Log       *zap.Logger
}

func NewBridge(p BridgeParams) *Bridge {
	b := &Bridge{
		hub:    p.Hub,
		client: p.Client,
		log:    p.Log.Named("push.bridge"),
		done:   make(chan struct{}),
	}
	if b.client == nil {
		close(b.done)
		return b
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			b.cancel = cancel
			go b.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if b.cancel != nil {
				b.cancel()
			}
			select {
			case <-b.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return b
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)

	sub := b.client.Subscribe(ctx, redisChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				if !errors.Is(ctx.Err(), context.Canceled) {
					b.log.Warn("push subscription closed")
				}
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("discarding malformed push envelope", zap.Error(err))
				continue
			}
			b.hub.Publish(event)
		}
	}
}
