package mqtt

import (
	"fmt"
	"sync"
)

// Publisher sends serialized payloads to broker topics.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Disconnect()
}

// MockPublisher records published payloads for tests.
type MockPublisher struct {
	mu         sync.Mutex
	Messages   map[string][][]byte
	FailTopics map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:   make(map[string][][]byte),
		FailTopics: make(map[string]bool),
	}
}

// Publish records the payload or returns an error if the topic is configured to fail.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopics[topic] {
		return fmt.Errorf("publish failed")
	}
	m.Messages[topic] = append(m.Messages[topic], payload)
	return nil
}

// Published returns the payloads recorded for a topic.
func (m *MockPublisher) Published(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.Messages[topic]))
	copy(out, m.Messages[topic])
	return out
}

// Topics returns every topic that received at least one payload.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, 0, len(m.Messages))
	for t := range m.Messages {
		topics = append(topics, t)
	}
	return topics
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
