package sms

import "context"

type Provider interface {
	Send(ctx context.Context, to string, text string) error
}

// NoOpProvider is used when no SMS gateway is configured; sends succeed
// silently.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to string, text string) error {
	return nil
}
