package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned when posting to a loop that has been closed.
var ErrClosed = errors.New("event loop closed")

// Event represents a UI input routed through the loop.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event on the loop goroutine.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer.
	Stop() bool
}

// Scheduler is the part of the loop the session components depend on.
// Everything the components own is touched only from callbacks the scheduler
// runs on the loop goroutine.
type Scheduler interface {
	// Go runs work off the loop and then runs then on the loop.
	Go(work func(ctx context.Context), then func())
	// AfterFunc runs f on the loop once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Loop is a single-goroutine task queue. Tasks run one at a time in the order
// they were posted; network work runs on worker goroutines and posts its
// continuation back.
type Loop struct {
	tasks    chan func()
	handlers map[string]HandlerFunc
	logger   Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	panics    metric.Int64Counter
}

// New creates a Loop with a task queue of the given size.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, size int) (*Loop, error) {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		tasks:    make(chan func(), size),
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	m := meter()

	var err error

	l.queueSize, err = m.Int64ObservableGauge(
		"eventloop.queue.size",
		metric.WithDescription("Current number of tasks waiting to run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(len(l.tasks)))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.processed, err = m.Int64Counter(
		"eventloop.tasks.processed",
		metric.WithDescription("Total tasks run on the loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	l.dropped, err = m.Int64Counter(
		"eventloop.tasks.dropped",
		metric.WithDescription("Total tasks dropped because the loop was closed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	l.panics, err = m.Int64Counter(
		"eventloop.tasks.panicked",
		metric.WithDescription("Total tasks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating panic counter: %w", err)
	}

	return l, nil
}

// Run processes tasks until Close is called.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

// Start runs the loop on its own goroutine.
func (l *Loop) Start() {
	go l.Run()
}

// Close stops the loop and cancels the context handed to in-flight work.
// Tasks still queued are discarded.
func (l *Loop) Close() {
	l.once.Do(l.cancel)
}

// Wait blocks until Run has returned.
func (l *Loop) Wait() {
	<-l.done
}

// Context is cancelled when the loop closes.
func (l *Loop) Context() context.Context {
	return l.ctx
}

// Post queues task to run on the loop. It blocks while the queue is full.
func (l *Loop) Post(task func()) error {
	select {
	case <-l.ctx.Done():
		l.dropped.Add(context.Background(), 1)
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.ctx.Done():
		l.dropped.Add(context.Background(), 1)
		return ErrClosed
	}
}

// Call runs f on the loop and waits for it to finish.
func (l *Loop) Call(f func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		f()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	}
}

// Go runs work on a new goroutine and posts then back onto the loop.
func (l *Loop) Go(work func(ctx context.Context), then func()) {
	go func() {
		work(l.ctx)
		if then != nil {
			if err := l.Post(then); err != nil {
				l.logger.Debug("continuation dropped", "error", err)
			}
		}
	}()
}

// AfterFunc runs f on the loop once d has elapsed, unless stopped first.
// Stop must be called from the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.stopped {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// loopTimer guards against a timer that expired and posted its callback just
// before Stop was called.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// Register adds a handler for the given command with optional configuration.
func (l *Loop) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = l.withLogging(command, handler)
	}

	l.handlers[command] = handler
}

// HasHandler returns true if a handler is registered for the command.
func (l *Loop) HasHandler(command string) bool {
	_, ok := l.handlers[command]
	return ok
}

// Dispatch routes an event to its handler on the loop and waits for the
// handler's result.
func (l *Loop) Dispatch(e Event) error {
	h, ok := l.handlers[e.Command]
	if !ok {
		return fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	var herr error
	if err := l.Call(func() { herr = h(e) }); err != nil {
		return err
	}
	return herr
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(context.Background(), 1)
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	task()
	l.processed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("loop", "ui")))
}

func (l *Loop) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		l.logger.Debug("handling event", "command", command, "args", len(e.Args))

		err := h(e)

		if err != nil {
			l.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			l.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return err
	}
}
