package stream

import (
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type KafkaStream struct {
	kafkaServers string
	logger       *slog.Logger

	mu       sync.Mutex
	producer *kafka.Producer
}

func New(kafkaServers string, logger *slog.Logger) *KafkaStream {
	return &KafkaStream{
		kafkaServers: kafkaServers,
		logger:       logger,
	}
}

// producerLocked returns the shared producer, creating it on first use.
// Delivery reports are drained in the background and logged.
func (st *KafkaStream) producerLocked() (*kafka.Producer, error) {
	if st.producer != nil {
		return st.producer, nil
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": st.kafkaServers})
	if err != nil {
		return nil, err
	}

	go func() {
		for ev := range producer.Events() {
			msg, ok := ev.(*kafka.Message)
			if !ok {
				continue
			}
			if msg.TopicPartition.Error != nil {
				st.logger.Error("message delivery failed", "topic", *msg.TopicPartition.Topic, "error", msg.TopicPartition.Error.Error())
			}
		}
	}()

	st.producer = producer
	return producer, nil
}

func (st *KafkaStream) ProduceMessage(topic, message string) error {
	st.mu.Lock()
	producer, err := st.producerLocked()
	st.mu.Unlock()
	if err != nil {
		return err
	}

	err = producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)
	if err != nil {
		st.logger.Error("failed to produce message", "topic", topic, "error", err.Error())
		return err
	}

	st.logger.Debug("message sent", "topic", topic)
	return nil
}

type StreamConsumer struct {
	GroupId string
	Topics  []string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.SubscribeTopics(consumerStruct.Topics, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}

// Close flushes pending messages for up to five seconds.
func (st *KafkaStream) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.producer == nil {
		return
	}
	st.producer.Flush(5000)
	st.producer.Close()
	st.producer = nil
}
