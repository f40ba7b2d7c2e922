package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"userauth/internal/observability/metrics"
	"userauth/internal/service"

	"github.com/sethvargo/go-retry"
)

var (
	ErrQueueFull        = errors.New("mail: queue full")
	ErrDispatcherClosed = errors.New("mail: dispatcher closed")
)

const DefaultSubject = "Account activation"

type DispatcherConfig struct {
	From        string
	QueueSize   int
	Workers     int
	Attempts    uint64        // total delivery attempts per message
	BaseBackoff time.Duration // first retry delay, doubled each time
	SendTimeout time.Duration // per attempt
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	return c
}

// Dispatcher queues activation emails and delivers them from a fixed pool of
// workers. Callers never wait on the mail transport: SendActivation either
// accepts the message or fails immediately. Delivery outcomes are only
// visible in logs and metrics.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig
	logger *slog.Logger

	queue chan service.ActivationMessage

	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan service.ActivationMessage, cfg.QueueSize),
	}
}

// Start launches the workers. Cancelling ctx aborts in-flight retries; it
// does not stop the workers, Close does.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			d.wg.Add(1)
			go d.worker(ctx, i)
		}
	})
}

func (d *Dispatcher) SendActivation(ctx context.Context, msg service.ActivationMessage) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- msg:
		metrics.EmailQueueDepth.Inc()
		metrics.EmailsTotal.WithLabelValues("queued").Inc()
		return nil
	default:
		metrics.EmailsTotal.WithLabelValues("rejected").Inc()
		d.logger.WarnContext(ctx, "activation email rejected, queue full", "to", msg.To)
		return ErrQueueFull
	}
}

// Close stops accepting messages, delivers everything already queued and
// waits for the workers to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	// never started: drain with a fresh pool
	d.Start(context.Background())
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, n int) {
	defer d.wg.Done()
	for msg := range d.queue {
		metrics.EmailQueueDepth.Dec()
		d.deliver(ctx, n, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, msg service.ActivationMessage) {
	logger := d.logger.With("worker", worker, "to", msg.To)

	m, err := d.compose(msg)
	if err != nil {
		metrics.EmailsTotal.WithLabelValues("render_error").Inc()
		logger.ErrorContext(ctx, "activation email render failed", "err", err)
		return
	}

	backoff := retry.WithMaxRetries(d.cfg.Attempts-1, retry.NewExponential(d.cfg.BaseBackoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
		if err := d.sender.Send(sendCtx, m); err != nil {
			logger.WarnContext(ctx, "activation email attempt failed", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		logger.ErrorContext(ctx, "activation email not delivered", "attempts", attempt, "err", err)
		return
	}
	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	logger.InfoContext(ctx, "activation email sent", "attempts", attempt)
}

func (d *Dispatcher) compose(msg service.ActivationMessage) (Message, error) {
	link, err := ActivationLink(msg.ActivationBaseURL, msg.Code, msg.To)
	if err != nil {
		return Message{}, err
	}
	text, html, err := renderActivation(activationData{Name: msg.DisplayName, Code: msg.Code, Link: link})
	if err != nil {
		return Message{}, err
	}
	subject := msg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	return Message{
		From:     d.cfg.From,
		To:       msg.To,
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}, nil
}
