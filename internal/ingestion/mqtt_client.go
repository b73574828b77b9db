package ingestion

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pet-tracker/internal/logger"
	"pet-tracker/internal/metrics"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"go.uber.org/zap"
)

// MessageSource is the subscribe side of the broker connection.
type MessageSource interface {
	Subscribe(topic string, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Subscriber wires per-device MQTT topics into the processor.
type Subscriber struct {
	source    MessageSource
	topics    pkgmqtt.Topics
	processor *Processor

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

func NewSubscriber(source MessageSource, topics pkgmqtt.Topics, processor *Processor) (*Subscriber, error) {
	if source == nil {
		return nil, errors.New("mqtt source is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	return &Subscriber{source: source, topics: topics, processor: processor}, nil
}

// Start subscribes one wildcard pattern per message class.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	classes := []string{
		pkgmqtt.ClassLocation,
		pkgmqtt.ClassStatus,
		pkgmqtt.ClassAlert,
		pkgmqtt.ClassConfig,
	}
	for _, class := range classes {
		topic := s.topics.Pattern(class)
		if err := s.source.Subscribe(topic, s.handleMessage); err != nil {
			s.unsubscribeAll()
			return fmt.Errorf("subscribe failed for topic %s: %w", topic, err)
		}
		s.subscriptions = append(s.subscriptions, topic)
		logger.Info("Listening for MQTT messages", zap.String("topic", topic))
	}

	s.started = true
	return nil
}

// Stop removes the subscriptions. The processor is stopped separately.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.unsubscribeAll()
	s.started = false
}

func (s *Subscriber) unsubscribeAll() {
	for _, topic := range s.subscriptions {
		if err := s.source.Unsubscribe(topic); err != nil {
			logger.Warn("Failed to unsubscribe", zap.String("topic", topic), zap.Error(err))
		}
	}
	s.subscriptions = nil
}

// handleMessage runs on the MQTT client goroutine, so it only routes.
func (s *Subscriber) handleMessage(topic string, payload []byte) error {
	deviceID, class, ok := s.topics.Parse(topic)
	if !ok {
		logger.Warn("Dropping message on unrecognized topic", zap.String("topic", topic))
		s.processor.Stats().Update(func(st *SyncStats) { st.MessagesInvalid++ })
		metrics.RecordInbound("unknown", metrics.ResultInvalid)
		return nil
	}

	body := make([]byte, len(payload))
	copy(body, payload)

	s.processor.Submit(Event{
		DeviceID:   deviceID,
		Class:      class,
		Payload:    body,
		ReceivedAt: time.Now(),
	})
	return nil
}
