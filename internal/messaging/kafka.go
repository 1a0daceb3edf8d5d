// Package messaging publishes video lifecycle events to Kafka. Publishing is
// optional: a nil Producer is valid everywhere and publishes nothing.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

// Event type constants
const (
	EventTypeVideoUploaded = "video.uploaded"
	EventTypeVideoTrimmed  = "video.trimmed"
	EventTypeVideoMerged   = "video.merged"
	EventTypeLinkCreated   = "video.link.created"
)

// Event is the envelope written to the topic.
type Event struct {
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   VideoPayload `json:"payload"`
}

// VideoPayload describes the video a lifecycle event refers to.
type VideoPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
}

// Producer publishes events to a single topic via a synchronous Kafka
// producer.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer to the given brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

// Close closes the underlying producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}

// Publish sends one event. A nil Producer drops the event silently so call
// sites do not need to care whether messaging is enabled.
func (p *Producer) Publish(eventType string, payload VideoPayload) error {
	if p == nil {
		return nil
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(payload.ID),
		Value: sarama.ByteEncoder(value),
	})
	return err
}
