package payments

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Simulator schedules the deferred completion of test-identity payments.
// Tasks are in-memory only: a restart drops whatever is still pending.
type Simulator struct {
	delay  time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	tasks  map[string]*SimTask
	closed bool

	// counts tasks from Schedule until they finish or are cancelled
	inflight sync.WaitGroup
}

func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{delay: delay, logger: slog.Default(), tasks: map[string]*SimTask{}}
}

func (s *Simulator) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Simulator) Delay() time.Duration { return s.delay }

// SimTask is the handle of one scheduled completion.
type SimTask struct {
	OrderID string

	timer *time.Timer
	done  chan struct{}
	once  sync.Once
	err   error
}

func (t *SimTask) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed once the task ran or was cancelled.
func (t *SimTask) Done() <-chan struct{} { return t.done }

// Err reports how the task ended. It is only meaningful after Done.
func (t *SimTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task ends or ctx is done.
func (t *SimTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule runs fn after the configured delay. fn gets its own context, so the
// task outlives the request that scheduled it.
func (s *Simulator) Schedule(orderID string, fn func(ctx context.Context) error) *SimTask {
	t := &SimTask{OrderID: orderID, done: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		t.finish(ErrSimulatorClosed)
		return t
	}
	if prev, ok := s.tasks[orderID]; ok {
		s.cancelLocked(prev)
	}
	s.tasks[orderID] = t
	s.inflight.Add(1)

	t.timer = time.AfterFunc(s.delay, func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			s.logger.Error("simulated completion failed", "order_id", orderID, "err", err)
		} else {
			s.logger.Info("simulated completion applied", "order_id", orderID)
		}

		s.mu.Lock()
		if s.tasks[orderID] == t {
			delete(s.tasks, orderID)
		}
		s.mu.Unlock()
		t.finish(err)
	})
	return t
}

// Cancel stops a task that has not fired yet. It reports false when the
// task already ran or is running.
func (s *Simulator) Cancel(t *SimTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(t)
}

func (s *Simulator) cancelLocked(t *SimTask) bool {
	if t.timer == nil || !t.timer.Stop() {
		return false
	}
	if s.tasks[t.OrderID] == t {
		delete(s.tasks, t.OrderID)
	}
	t.finish(ErrTaskCancelled)
	s.inflight.Done()
	return true
}

// Pending returns the number of tasks that have not fired yet.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Shutdown cancels every pending task, refuses new ones and waits for tasks
// that already fired to finish.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	s.closed = true
	for _, t := range s.tasks {
		s.cancelLocked(t)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}
