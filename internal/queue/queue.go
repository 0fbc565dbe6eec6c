// Package queue moves outgoing mail off the request path. A Publisher writes
// MailJobs to a broker; a Worker consumes them and sends them through an
// EmailSender. Delivery is at most once: a job whose send fails is dropped.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medhistory/internal/notify"
)

type MailJob struct {
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"content"`
	To      string `json:"to_email"`
}

func (j MailJob) Email() notify.Email {
	return notify.Email{From: j.From, To: j.To, Subject: j.Subject, HTML: j.HTML}
}

func encodeJob(job MailJob) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode mail job: %w", err)
	}
	return payload, nil
}

func decodeJob(payload []byte) (MailJob, error) {
	var job MailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return MailJob{}, fmt.Errorf("decode mail job: %w", err)
	}
	return job, nil
}

// readRetryDelay is how long a consumer waits after a failed broker read.
const readRetryDelay = time.Second

// pause waits for d and reports false when ctx ends first.
func pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type Publisher interface {
	Publish(ctx context.Context, job MailJob) error
	Close() error
}

// Handler processes one job. Consumers log and skip jobs whose handler fails.
type Handler func(ctx context.Context, job MailJob) error

type Consumer interface {
	// Consume blocks, feeding jobs to handle until ctx is cancelled.
	Consume(ctx context.Context, handle Handler) error
	Close() error
}

// Outbox adapts a Publisher to the notifier's MailQueue.
type Outbox struct {
	publisher Publisher
}

func NewOutbox(publisher Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

func (o *Outbox) Enqueue(ctx context.Context, email notify.Email) error {
	return o.publisher.Publish(ctx, MailJob{
		From:    email.From,
		Subject: email.Subject,
		HTML:    email.HTML,
		To:      email.To,
	})
}
