package push

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const redisChannel = "fieldforge:push"

// Gateway is the lifecycle's view of realtime push. Delivery is best effort
// and never reports failure to the caller.
type Gateway interface {
	PushToUser(ctx context.Context, userID, eventName string, payload any)
}

type gateway struct {
	hub    *Hub
	client *redis.Client
	log    *zap.Logger
}

type GatewayParams struct {
	fx.In

	Hub    *Hub
	Client *redis.Client
	Log    *zap.Logger
}

func NewGateway(p GatewayParams) Gateway {
	return &gateway{
		hub:    p.Hub,
		client: p.Client,
		log:    p.Log.Named("push.gateway"),
	}
}

func (g *gateway) PushToUser(ctx context.Context, userID, eventName string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		g.log.Warn("push payload not serializable",
			zap.String("user_id", userID),
			zap.String("event", eventName),
			zap.Error(err))
		return
	}

	event := Event{
		UserID:  userID,
		Name:    eventName,
		Payload: body,
		SentAt:  time.Now().UTC(),
	}

	// Without redis every subscriber is local. With redis the event goes
	// over pub/sub and the bridge feeds every instance's hub, this one
	// included.
	if g.client == nil {
		g.hub.Publish(event)
		return
	}

	wire, err := json.Marshal(event)
	if err != nil {
		g.log.Warn("push envelope not serializable", zap.Error(err))
		return
	}
	if err := g.client.Publish(ctx, redisChannel, wire).Err(); err != nil {
		g.log.Warn("push publish failed, delivering locally only",
			zap.String("user_id", userID),
			zap.String("event", eventName),
			zap.Error(err))
		g.hub.Publish(event)
	}
}
