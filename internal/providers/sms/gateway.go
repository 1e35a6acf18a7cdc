package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL string
	Token   string
	Sender  string
}

type gatewayRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type gatewayResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// GatewayProvider delivers SMS through an HTTP gateway.
type GatewayProvider struct {
	httpClient *resty.Client
	sender     string
	logger     *zap.Logger
}

func NewGateway(cfg Config, logger *zap.Logger) *GatewayProvider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GatewayProvider{
		httpClient: client,
		sender:     cfg.Sender,
		logger:     logger.Named("sms.gateway"),
	}
}

func (p *GatewayProvider) Send(ctx context.Context, to string, text string) error {
	if to == "" {
		return fmt.Errorf("recipient number is empty")
	}

	var response gatewayResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(gatewayRequest{From: p.sender, To: to, Text: text}).
		SetResult(&response).
		Post("/v1/messages")
	if err != nil {
		p.logger.Error("sms gateway call failed", zap.Error(err))
		return fmt.Errorf("sms gateway call failed: %w", err)
	}
	if resp.IsError() {
		p.logger.Error("sms gateway rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", response.Message),
		)
		return fmt.Errorf("sms gateway error: %s (status: %d)", response.Message, resp.StatusCode())
	}
	return nil
}
