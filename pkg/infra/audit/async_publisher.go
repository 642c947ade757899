package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQueueSize      = 1024
	DefaultPublishTimeout = 2 * time.Second
)

var (
	ErrQueueFull       = errors.New("audit queue is full")
	ErrPublisherClosed = errors.New("audit publisher is closed")
)

// AsyncPublisher queues events and hands them to the wrapped Publisher from a
// single goroutine. Publish never waits on the sink; events are dropped when
// the queue is full.
type AsyncPublisher struct {
	inner   Publisher
	logger  *logrus.Logger
	timeout time.Duration
	events  chan guardrail.AuditEvent
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAsyncPublisher(inner Publisher, logger *logrus.Logger, queueSize int, timeout time.Duration) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	p := &AsyncPublisher{
		inner:   inner,
		logger:  logger,
		timeout: timeout,
		events:  make(chan guardrail.AuditEvent, queueSize),
		done:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Publish enqueues ev. ctx is not carried over: the event outlives the
// request that produced it.
func (p *AsyncPublisher) Publish(_ context.Context, ev guardrail.AuditEvent) error {
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case ev := <-p.events:
			p.send(ev)
		case <-p.done:
			p.drain()
			return
		}
	}
}

func (p *AsyncPublisher) drain() {
	for {
		select {
		case ev := <-p.events:
			p.send(ev)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) send(ev guardrail.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.inner.Publish(ctx, ev); err != nil {
		p.logger.WithFields(logrus.Fields{
			"request_id": ev.RequestID,
			"stage":      ev.Stage,
		}).WithError(err).Warn("failed to publish audit event")
	}
}

// Close delivers queued events and stops the worker. Safe to call more than
// once.
func (p *AsyncPublisher) Close() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}
