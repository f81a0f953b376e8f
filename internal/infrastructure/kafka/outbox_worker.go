package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/jitter"
	"github.com/mercalog/go-backend/pkg/logger"
)

// notifyConn — LISTEN-соединение с PostgreSQL.
type notifyConn interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// OutboxWorker переносит события из таблицы outbox_events в Kafka.
// Просыпается по NOTIFY outbox_pending, остатки добирает при старте.
type OutboxWorker struct {
	repo     usecase.OutboxRepository
	logger   logger.Logger
	producer usecase.MessageProducer
	stop     chan struct{}
	wg       sync.WaitGroup

	connect     func(ctx context.Context) (notifyConn, error)
	backoffBase time.Duration
	backoffMax  time.Duration
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
) *OutboxWorker {
	w := &OutboxWorker{
		repo:        repo,
		logger:      logger,
		producer:    producer,
		stop:        make(chan struct{}),
		backoffBase: time.Second,
		backoffMax:  30 * time.Second,
	}

	w.connect = func(ctx context.Context) (notifyConn, error) {
		conn, err := pgx.Connect(ctx, dbConnStr)
		if err != nil {
			return nil, e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err := conn.Exec(ctx, "LISTEN outbox_pending"); err != nil {
			conn.Close(ctx)
			return nil, e.Wrap("failed to LISTEN", err)
		}

		return conn, nil
	}

	return w
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("startup batch failed: %v", err)
			return
		}
		if !hasMore {
			break
		}
	}

	<-ctx.Done()
	w.logger.Infof("Outbox worker stopped by context cancellation")
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	conn := w.establishConn(ctx)
	if conn == nil {
		return
	}
	defer func() {
		if conn != nil {
			conn.Close(ctx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			notif, err := conn.WaitForNotification(ctxWithTimeout)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
				conn.Close(ctx)

				// Новый WaitForNotification только на живом соединении
				conn = w.establishConn(ctx)
				if conn == nil {
					return
				}
				continue
			}

			if notif != nil && notif.Channel == "outbox_pending" {
				w.logger.Debugf("Received outbox notification, draining outbox events")
				for {
					hasMore, err := w.processBatch(ctx)
					if err != nil {
						w.logger.Warnf("Batch processing failed: %v", err)
						break
					}
					if !hasMore {
						break
					}
				}
			}
		}
	}
}

// establishConn подключается к каналу outbox_pending, повторяя попытки
// с экспоненциальным отступлением. nil возвращается только при остановке.
func (w *OutboxWorker) establishConn(ctx context.Context) notifyConn {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		default:
		}

		conn, err := w.connect(ctx)
		if err == nil {
			w.logger.Infof("Subscribed to 'outbox_pending' channel")
			return conn
		}
		w.logger.Warnf("LISTEN connect failed: %v", err)

		backoff := jitter.ExponentialBackoff(w.backoffBase, w.backoffMax, attempt, jitter.DefaultJitter)
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case <-time.After(backoff):
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, 10)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Warnf("event %s failed: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return true, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.ProductID, event.Payload)); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
