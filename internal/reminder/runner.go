package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	applog "github.com/Kuzmenkoav1982/famcal/internal/log"
	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

// DefaultSpec polls once a minute, the coarsest reminder granularity.
const DefaultSpec = "@every 1m"

var ErrRunnerStopped = errors.New("reminder: runner stopped")

// EventSource supplies the current event collection for a tick.
type EventSource interface {
	Events(ctx context.Context) ([]model.Event, error)
}

// EventSourceFunc adapts a plain function to EventSource.
type EventSourceFunc func(ctx context.Context) ([]model.Event, error)

func (f EventSourceFunc) Events(ctx context.Context) ([]model.Event, error) { return f(ctx) }

// Sink hands intents to whatever presents them to people.
type Sink interface {
	Notify(ctx context.Context, in Intent) error
}

// Runner drives a Scheduler from a cron timer. Ticks never overlap: a tick
// still running when the next one is due causes that cycle to be skipped.
type Runner struct {
	mu sync.Mutex
	// sendMu guards out: publishers hold it shared, Stop holds it
	// exclusively to close the channel.
	sendMu    sync.RWMutex
	sched     *Scheduler
	source    EventSource
	sink      Sink
	spec      string
	now       func() time.Time
	loc       *time.Location
	out       chan Intent
	stopCh    chan struct{}
	cron      *cron.Cron
	started   bool
	stopped   bool
	ticks     uint64
	delivered uint64
}

type RunnerOption func(*Runner)

func WithSpec(spec string) RunnerOption {
	return func(r *Runner) {
		if spec != "" {
			r.spec = spec
		}
	}
}

func WithSink(s Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// WithChannel publishes intents on C() with the given buffer. Delivery blocks
// while the buffer is full, so a consumer must keep reading.
func WithChannel(buffer int) RunnerOption {
	return func(r *Runner) {
		if buffer <= 0 {
			buffer = 1
		}
		r.out = make(chan Intent, buffer)
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func WithCronLocation(loc *time.Location) RunnerOption {
	return func(r *Runner) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func NewRunner(sched *Scheduler, source EventSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		sched:  sched,
		source: source,
		spec:   DefaultSpec,
		now:    time.Now,
		loc:    time.Local,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// C returns the intent channel, or nil when WithChannel was not used.
func (r *Runner) C() <-chan Intent {
	return r.out
}

func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return nil
	}

	logger := applog.CronLogger{}
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(r.spec, r.tick); err != nil {
		return err
	}
	r.cron = c
	r.started = true
	c.Start()
	applog.Info("reminder runner started", "spec", r.spec)
	return nil
}

// Stop halts the timer, waits for a running tick to finish and closes C().
// It is safe to call while RunOnce is in progress on another goroutine.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	c := r.cron
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	if r.out != nil {
		r.sendMu.Lock()
		close(r.out)
		r.sendMu.Unlock()
	}
	applog.Info("reminder runner stopped", "ticks", r.Ticks(), "delivered", r.Delivered())
}

func (r *Runner) Ticks() uint64 {
	return atomic.LoadUint64(&r.ticks)
}

func (r *Runner) Delivered() uint64 {
	return atomic.LoadUint64(&r.delivered)
}

func (r *Runner) tick() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	if _, err := r.RunOnce(ctx, r.now()); err != nil {
		applog.Error("reminder tick failed", err)
	}
}

// RunOnce loads events, runs one scheduler tick at now and delivers the
// resulting intents. It returns the intents produced by the tick.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) ([]Intent, error) {
	select {
	case <-r.stopCh:
		return nil, ErrRunnerStopped
	default:
	}
	atomic.AddUint64(&r.ticks, 1)
	events, err := r.source.Events(ctx)
	if err != nil {
		return nil, err
	}
	intents := r.sched.Tick(ctx, now, events)
	for _, in := range intents {
		r.deliver(ctx, in)
	}
	return intents, nil
}

// deliver hands in to the sink and the channel. The marker is released only
// when no target took the intent, so one failing target never suppresses
// the other and a reminder already shown is not repeated.
func (r *Runner) deliver(ctx context.Context, in Intent) {
	if r.sink == nil && r.out == nil {
		atomic.AddUint64(&r.delivered, 1)
		applog.Info("reminder due", "event_id", in.EventID, "title", in.Title, "day", in.Day.String())
		return
	}

	taken := false
	if r.sink != nil {
		if err := r.sink.Notify(ctx, in); err != nil {
			applog.Error("reminder sink failed", err, "event_id", in.EventID)
		} else {
			taken = true
		}
	}
	if r.out != nil && r.publish(ctx, in) {
		taken = true
	}

	if !taken {
		applog.Warn("reminder not delivered, releasing marker", nil, "event_id", in.EventID)
		if err := r.sched.Release(context.WithoutCancel(ctx), in); err != nil {
			applog.Warn("marker release failed", err, "event_id", in.EventID)
		}
		return
	}
	atomic.AddUint64(&r.delivered, 1)
	applog.Info("reminder delivered", "event_id", in.EventID, "title", in.Title, "day", in.Day.String())
}

func (r *Runner) publish(ctx context.Context, in Intent) bool {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	select {
	case <-r.stopCh:
		return false
	default:
	}
	select {
	case r.out <- in:
		return true
	case <-r.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
