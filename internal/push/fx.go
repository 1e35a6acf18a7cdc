package push

import "go.uber.org/fx"

var Module = fx.Module("push",
	fx.Provide(NewHub),
	fx.Provide(NewGateway),
	fx.Provide(NewBridge),
	fx.Invoke(func(*Bridge) {}),
)
