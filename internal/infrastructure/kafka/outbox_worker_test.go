package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mercalog/go-backend/internal/usecase"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})        {}
func (nopLogger) Infof(string, ...interface{})         {}
func (nopLogger) Warnf(string, ...interface{})         {}
func (nopLogger) Errorf(error, string, ...interface{}) {}

type fakeOutboxStore struct {
	mu     sync.Mutex
	queue  []*usecase.OutboxEvent
	marked []int64
}

func (f *fakeOutboxStore) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (f *fakeOutboxStore) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil, nil
	}
	if limit > len(f.queue) {
		limit = len(f.queue)
	}

	batch := f.queue[:limit]
	f.queue = f.queue[limit:]
	return batch, nil
}

func (f *fakeOutboxStore) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeOutboxStore) push(event *usecase.OutboxEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, event)
}

type fakeMessageProducer struct {
	mu     sync.Mutex
	writes []*usecase.WriteRawMessageReq
	wrote  chan struct{}
}

func newFakeMessageProducer() *fakeMessageProducer {
	return &fakeMessageProducer{wrote: make(chan struct{}, 16)}
}

func (f *fakeMessageProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	f.writes = append(f.writes, req)
	f.mu.Unlock()
	f.wrote <- struct{}{}
	return nil
}

type notifResult struct {
	notif *pgconn.Notification
	err   error
}

type fakeNotifyConn struct {
	results chan notifResult
	mu      sync.Mutex
	closed  bool
}

func newFakeNotifyConn() *fakeNotifyConn {
	return &fakeNotifyConn{results: make(chan notifResult, 4)}
}

func (c *fakeNotifyConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case r := <-c.results:
		return r.notif, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeNotifyConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeNotifyConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newTestWorker(store *fakeOutboxStore, producer *fakeMessageProducer) *OutboxWorker {
	w := NewOutboxWorker(store, nopLogger{}, producer, "unused")
	w.backoffBase = time.Millisecond
	w.backoffMax = 5 * time.Millisecond
	return w
}

// Обрыв соединения при недоступной базе: слушатель обязан крутить
// переподключение с отступлением, а не ждать уведомлений на мёртвом
// соединении, и продолжить разбор outbox после восстановления.
func TestListenerRetriesReconnectUntilDBRecovers(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newFakeMessageProducer()
	w := newTestWorker(store, producer)

	first := newFakeNotifyConn()
	second := newFakeNotifyConn()

	var attempts int32
	w.connect = func(context.Context) (notifyConn, error) {
		switch n := atomic.AddInt32(&attempts, 1); {
		case n == 1:
			return first, nil
		case n < 4:
			// База недоступна
			return nil, errors.New("connection refused")
		default:
			return second, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() {
		cancel()
		w.Stop()
	}()

	// Первое соединение умирает не по таймауту
	first.results <- notifResult{err: errors.New("unexpected EOF")}

	store.push(&usecase.OutboxEvent{ID: 1, EventID: "ev-1", ProductID: 7, Payload: []byte(`{}`)})
	second.results <- notifResult{notif: &pgconn.Notification{Channel: "outbox_pending"}}

	select {
	case <-producer.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published after reconnect")
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&attempts) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := atomic.LoadInt32(&attempts); got < 4 {
		t.Errorf("expected at least 4 connect attempts, got %d", got)
	}
	if !first.isClosed() {
		t.Error("dead connection must be closed before reconnecting")
	}

	producer.mu.Lock()
	defer producer.mu.Unlock()
	if len(producer.writes) != 1 || producer.writes[0].ProductID != 7 {
		t.Errorf("unexpected writes: %+v", producer.writes)
	}
}

func TestListenerStopsCleanlyWhileDBIsDown(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newFakeMessageProducer()
	w := newTestWorker(store, producer)

	w.connect = func(context.Context) (notifyConn, error) {
		return nil, errors.New("connection refused")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop while reconnecting")
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused must be retryable")
	}
	if isRetryableError(errors.New("invalid message")) {
		t.Error("permanent failures must not be retryable")
	}
	if isRetryableError(nil) {
		t.Error("nil is not retryable")
	}
}
