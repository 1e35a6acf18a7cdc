// Package notification fans a single request out to every recipient and
// channel pair. Delivery failures are isolated per pair; the dispatch as a
// whole only fails on a malformed request.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	"github.com/fieldforge/fieldforge/internal/providers/email"
	"github.com/fieldforge/fieldforge/internal/providers/sms"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ErrMalformedRequest is returned when the request has no recipients or an
// empty body. It is the only way Dispatch fails as a whole.
var ErrMalformedRequest = errors.New("malformed_notification_request")

// Recipient carries resolved contact details. Channels lacking an address
// for the recipient fail for that pair only.
type Recipient struct {
	UserID      string
	DisplayName string
	Email       string
	Phone       string
	Channels    []Channel
}

type Request struct {
	Subject    string
	Body       string
	Recipients []Recipient
}

// Result records one delivery attempt for one recipient and channel pair.
type Result struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) ([]Result, error)
}

type dispatcher struct {
	log         *zap.Logger
	metrics     *metrics.Metrics
	email       email.Provider
	sms         sms.Provider
	workers     int
	sendTimeout time.Duration
}

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Email   email.Provider
	SMS     sms.Provider
}

func New(p Params) Dispatcher {
	workers := p.Config.NotifyWorkers
	if workers < 1 {
		workers = 1
	}
	timeout := time.Duration(p.Config.NotifySendTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &dispatcher{
		log:         p.Log.Named("notification.dispatcher"),
		metrics:     p.Metrics,
		email:       p.Email,
		sms:         p.SMS,
		workers:     workers,
		sendTimeout: timeout,
	}
}

type job struct {
	index     int
	recipient Recipient
	channel   Channel
}

// Dispatch attempts delivery for every recipient and channel pair through a
// bounded worker pool and returns one result per pair. One pair failing
// never blocks or fails another.
func (d *dispatcher) Dispatch(ctx context.Context, req Request) ([]Result, error) {
	if len(req.Recipients) == 0 || req.Body == "" {
		return nil, ErrMalformedRequest
	}

	var jobs []job
	for _, r := range req.Recipients {
		for _, ch := range r.Channels {
			jobs = append(jobs, job{index: len(jobs), recipient: r, channel: ch})
		}
	}
	if len(jobs) == 0 {
		return nil, ErrMalformedRequest
	}

	results := make([]Result, len(jobs))
	jobCh := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				results[j.index] = d.deliver(ctx, req, j)
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	return results, nil
}

func (d *dispatcher) deliver(ctx context.Context, req Request, j job) Result {
	result := Result{
		ID:      ulid.Make().String(),
		UserID:  j.recipient.UserID,
		Channel: j.channel,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := d.send(sendCtx, req, j)

	if err != nil {
		result.Error = err.Error()
		d.metrics.NotificationResults.WithLabelValues(string(j.channel), "failure").Inc()
		d.log.Warn("notification delivery failed",
			zap.String("user_id", j.recipient.UserID),
			zap.String("channel", string(j.channel)),
			zap.Error(err))
		return result
	}

	result.Success = true
	d.metrics.NotificationResults.WithLabelValues(string(j.channel), "success").Inc()
	return result
}

// send runs one provider call. The call happens in its own goroutine and the
// timeout is enforced here, so a provider that ignores its context still
// fails the pair after sendTimeout instead of stalling the dispatch.
func (d *dispatcher) send(ctx context.Context, req Request, j job) error {
	done := make(chan error, 1)
	go func() {
		switch j.channel {
		case ChannelEmail:
			if j.recipient.Email == "" {
				done <- errors.New("recipient has no email address")
				return
			}
			done <- d.email.Send(ctx, []string{j.recipient.Email}, req.Subject, req.Body)
		case ChannelSMS:
			if j.recipient.Phone == "" {
				done <- errors.New("recipient has no phone number")
				return
			}
			done <- d.sms.Send(ctx, j.recipient.Phone, req.Body)
		default:
			done <- errors.New("unknown channel")
		}
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delivery timed out: %w", ctx.Err())
	}
}

var Module = fx.Module("notification.dispatcher",
	fx.Provide(New),
)
