package queue

import (
	"context"
	"time"

	"medhistory/internal/notify"

	"go.uber.org/zap"
)

// Worker drains a Consumer into an EmailSender.
type Worker struct {
	consumer Consumer
	sender   notify.EmailSender
	from     string
	timeout  time.Duration
	log      *zap.Logger
}

func NewWorker(consumer Consumer, sender notify.EmailSender, from string, timeout time.Duration, log *zap.Logger) *Worker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Worker{
		consumer: consumer,
		sender:   sender,
		from:     from,
		timeout:  timeout,
		log:      log.With(zap.String("component", "mail_worker")),
	}
}

// Run blocks until ctx is cancelled or the consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Mail worker started")
	defer w.log.Info("Mail worker stopped")

	return w.consumer.Consume(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, job MailJob) error {
	email := job.Email()
	if email.From == "" {
		email.From = w.from
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.sender.SendEmail(sendCtx, email); err != nil {
		return err
	}

	w.log.Debug("Mail sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}
