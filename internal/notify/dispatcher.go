package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type DispatcherConfig struct {
	From        string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Dispatcher sends notifications in the background. Every send runs on its
// own goroutine with a detached context bounded by Timeout, is retried up to
// MaxAttempts times, and a final failure is only logged.
type Dispatcher struct {
	sms   SMSSender
	email EmailSender
	queue MailQueue
	cfg   DispatcherConfig
	log   *zap.Logger
	wg    sync.WaitGroup

	done      chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(sms SMSSender, email EmailSender, queue MailQueue, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}

	return &Dispatcher{
		sms:   sms,
		email: email,
		queue: queue,
		cfg:   cfg,
		log:   log.With(zap.String("component", "dispatcher")),
		done:  make(chan struct{}),
	}
}

// SMS queues an SMS for delivery and returns immediately.
func (d *Dispatcher) SMS(to, body string) {
	d.run("sms", to, func(ctx context.Context) error {
		return d.sms.SendSMS(ctx, to, body)
	})
}

// Email hands the message to the mail queue when one is configured, otherwise
// sends it directly. Either way the caller does not wait.
func (d *Dispatcher) Email(to, subject, html string) {
	msg := Email{From: d.cfg.From, To: to, Subject: subject, HTML: html}

	if d.queue != nil {
		d.run("mail_queue", to, func(ctx context.Context) error {
			return d.queue.Enqueue(ctx, msg)
		})
		return
	}

	d.run("email", to, func(ctx context.Context) error {
		return d.email.SendEmail(ctx, msg)
	})
}

// Close cuts pending retry backoffs short. Sends already in flight still
// finish; no further attempts are made after the current one.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Wait blocks until every dispatched send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(channel, to string, send func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var err error
		for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
			err = send(ctx)
			cancel()

			if err == nil {
				d.log.Debug("Notification delivered",
					zap.String("channel", channel),
					zap.String("to", to),
					zap.Int("attempt", attempt),
				)
				return
			}

			if attempt < d.cfg.MaxAttempts && !d.backoff(time.Duration(attempt)*d.cfg.Backoff) {
				d.log.Warn("Notification dropped on shutdown",
					zap.Error(err),
					zap.String("channel", channel),
					zap.String("to", to),
					zap.Int("attempts", attempt),
				)
				return
			}
		}

		d.log.Warn("Notification dropped",
			zap.Error(err),
			zap.String("channel", channel),
			zap.String("to", to),
			zap.Int("attempts", d.cfg.MaxAttempts),
		)
	}()
}

// backoff waits for delay and reports false when the dispatcher closed first.
func (d *Dispatcher) backoff(delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-d.done:
		return false
	}
}
