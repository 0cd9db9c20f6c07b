package mailer

import (
	"context"
	"sync"
)

// Mock records every message it is asked to send. Safe for use from the
// goroutines that deliver receipts.
type Mock struct {
	Err error

	mu   sync.Mutex
	sent []Email
}

func (m *Mock) Send(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return m.Err
}

// Messages returns a copy of the messages sent so far.
func (m *Mock) Messages() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}
