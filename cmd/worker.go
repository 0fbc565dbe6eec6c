package cmd

import (
	"context"
	"fmt"

	"medhistory/internal/notify"
	"medhistory/internal/queue"
	"medhistory/pkg/database"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

// MailQueue is the publishing and consuming side of the configured broker.
type MailQueue struct {
	Publisher queue.Publisher
	Consumer  queue.Consumer
}

// Close releases both sides.
func (q *MailQueue) Close() {
	if q == nil {
		return
	}
	if q.Publisher != nil {
		_ = q.Publisher.Close()
	}
	if q.Consumer != nil && any(q.Consumer) != any(q.Publisher) {
		_ = q.Consumer.Close()
	}
}

// OpenMailQueue connects the broker selected by MAIL_QUEUE_DRIVER. It returns
// nil for "none", in which case mail is sent inline.
func OpenMailQueue(config *utils.Config, logger *zap.Logger) (*MailQueue, error) {
	switch config.Queue.Driver {
	case "", "none":
		return nil, nil

	case "redis":
		client, err := database.InitRedis(config.Redis.URL)
		if err != nil {
			return nil, err
		}
		q := queue.NewRedisQueue(client, config.Redis.MailKey, logger)
		return &MailQueue{Publisher: q, Consumer: q}, nil

	case "kafka":
		if len(config.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka mail queue requires KAFKA_BROKERS")
		}
		return &MailQueue{
			Publisher: queue.NewKafkaPublisher(config.Kafka.Brokers, config.Kafka.Topic, logger),
			Consumer:  queue.NewKafkaConsumer(config.Kafka.Brokers, config.Kafka.Topic, config.Kafka.GroupID, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unknown mail queue driver %q", config.Queue.Driver)
	}
}

// MailWorker consumes the queue until ctx is cancelled.
func MailWorker(ctx context.Context, q *MailQueue, sender notify.EmailSender, config *utils.Config, logger *zap.Logger) {
	worker := queue.NewWorker(q.Consumer, sender, config.Email.From, config.Notify.Timeout, logger)
	if err := worker.Run(ctx); err != nil {
		logger.Error("Mail worker exited", zap.Error(err))
	}
}
