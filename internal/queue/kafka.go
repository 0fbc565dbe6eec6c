package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				log.Error(fmt.Sprintf(msg, args...), zap.String("queue", "kafka"))
			}),
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, job MailJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(job.To), Value: payload}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads as a member of a consumer group; offsets are committed
// as messages are read, so a crash mid-send loses that job.
type KafkaConsumer struct {
	reader     messageReader
	retryDelay time.Duration
	log        *zap.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, log *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		retryDelay: readRetryDelay,
		log:        log.With(zap.String("queue", "kafka"), zap.String("topic", topic)),
	}
}

func (c *KafkaConsumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("Failed to read mail job", zap.Error(err))
			if !pause(ctx, c.retryDelay) {
				return nil
			}
			continue
		}

		job, err := decodeJob(msg.Value)
		if err != nil {
			c.log.Warn("Dropping malformed mail job", zap.Error(err), zap.Int64("offset", msg.Offset))
			continue
		}

		if err := handle(ctx, job); err != nil {
			c.log.Warn("Mail job failed", zap.Error(err), zap.String("to", job.To))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
