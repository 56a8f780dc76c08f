package mqtt

import (
	"sync"

	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/telemetry"
)

// MockClient implements telemetry.Source and telemetry.ActionPublisher in
// memory for tests.
type MockClient struct {
	mu        sync.Mutex
	messages  chan telemetry.Message
	published []model.Action
	closed    bool
}

// NewMockClient returns a MockClient with a buffered telemetry channel.
func NewMockClient() *MockClient {
	return &MockClient{messages: make(chan telemetry.Message, 16)}
}

// Inject delivers a telemetry message as if it arrived from the broker.
func (m *MockClient) Inject(msg telemetry.Message) {
	m.messages <- msg
}

// Messages returns the telemetry channel.
func (m *MockClient) Messages() <-chan telemetry.Message { return m.messages }

// PublishAction records the action.
func (m *MockClient) PublishAction(site string, act model.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, act)
	return nil
}

// Published returns the actions published so far.
func (m *MockClient) Published() []model.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Action, len(m.published))
	copy(out, m.published)
	return out
}

// Close closes the telemetry channel.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.messages)
	}
	return nil
}
