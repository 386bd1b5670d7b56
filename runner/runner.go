// Package runner sequences one discovery-and-exchange run per user action on
// a background goroutine and publishes its progress, in order, to an observer.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/catalog"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/internal/fifo"
	"github.com/srg/sppcli/internal/groutine"
	"github.com/srg/sppcli/pkg/event"
	"github.com/srg/sppcli/session"
)

var (
	// ErrBusy is returned by Start while a previous invocation is still running.
	ErrBusy = errors.New("runner: invocation already in progress")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("runner: closed")
)

// Outcome is the programmatic result of an invocation. Hosts that only need
// the event stream can ignore it.
type Outcome struct {
	Target      device.PeripheralDescriptor
	Response    []byte
	Err         error
	CloseErrors []*device.TransportError
}

// Invocation is one run started by Start.
type Invocation struct {
	ID string

	done    chan struct{}
	outcome Outcome
}

// Done is closed once the final ButtonsEnabled event has been delivered.
func (i *Invocation) Done() <-chan struct{} {
	return i.done
}

// Wait blocks until the invocation finished and returns its outcome.
func (i *Invocation) Wait() Outcome {
	<-i.done
	return i.outcome
}

type delivery struct {
	ev  event.Event
	ack chan struct{} // closed after delivery when non-nil
}

// Runner owns the event channel between background invocations and the host's
// Observer. It holds the observer without owning it: the host must call
// Unregister before tearing the observer down.
type Runner struct {
	adapter device.Adapter
	catalog *catalog.Catalog
	opts    Options
	logger  *logrus.Logger

	obsMu    sync.RWMutex
	observer event.Observer

	queue        *fifo.Queue[delivery]
	dispatchDone <-chan struct{}

	running  atomic.Bool
	closed   atomic.Bool
	inflight sync.WaitGroup
	startMu  sync.Mutex
}

// New creates a Runner and starts its event dispatcher.
func New(adapter device.Adapter, opts Options, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	opts = opts.withDefaults()

	r := &Runner{
		adapter: adapter,
		catalog: catalog.NewCatalog(logger),
		opts:    opts,
		logger:  logger,
		queue:   fifo.New[delivery](opts.QueueCapacity),
	}
	r.dispatchDone = groutine.Go(context.Background(), "event-dispatcher", r.dispatch)
	return r
}

// Register makes obs the receiver of all subsequent events, replacing any
// previous observer.
func (r *Runner) Register(obs event.Observer) {
	r.obsMu.Lock()
	r.observer = obs
	r.obsMu.Unlock()
}

// Unregister detaches the observer. When it returns no Notify call is in
// progress and none will follow. It must not be called from within Notify.
func (r *Runner) Unregister() {
	r.obsMu.Lock()
	r.observer = nil
	r.obsMu.Unlock()
}

// Start launches one invocation on its own goroutine and returns immediately.
func (r *Runner) Start(ctx context.Context) (*Invocation, error) {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	if r.closed.Load() {
		return nil, ErrClosed
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	if ctx == nil {
		ctx = context.Background()
	}

	inv := &Invocation{ID: uuid.NewString(), done: make(chan struct{})}
	r.inflight.Add(1)
	groutine.Go(ctx, "session-"+inv.ID, func(ctx context.Context) {
		defer r.inflight.Done()
		r.run(ctx, inv)
	})
	return inv, nil
}

// Close waits for a running invocation to finish, drains pending events and
// stops the dispatcher. Close is idempotent.
func (r *Runner) Close() {
	r.startMu.Lock()
	already := r.closed.Swap(true)
	r.startMu.Unlock()
	if already {
		<-r.dispatchDone
		return
	}

	r.inflight.Wait()
	r.queue.Close()
	<-r.dispatchDone

	m := r.queue.GetMetrics()
	r.logger.WithFields(logrus.Fields{
		"events":  m.Written,
		"blocked": m.Blocked,
	}).Debug("Event dispatcher stopped")
}

// run executes the stages in order. Whatever stage is reached, the deferred
// block announces the close, releases the session and re-enables the host,
// exactly once.
func (r *Runner) run(ctx context.Context, inv *Invocation) {
	log := r.logger.WithField("run_id", inv.ID)
	log.Debug("Invocation started")

	var sess *session.Session

	defer func() {
		if p := recover(); p != nil {
			inv.outcome.Err = fmt.Errorf("runner: stage panicked: %v", p)
			log.WithField("panic", p).Error("Invocation panicked")
			r.emit(event.Appendf(MsgError, p))
		}

		r.emit(event.Append(MsgClosing))
		if sess != nil {
			sess.Close()
		}

		r.running.Store(false)
		r.emitAndWait(event.Enable())

		log.WithError(inv.outcome.Err).Debug("Invocation finished")
		close(inv.done)
	}()

	r.emit(event.Disable())
	inv.outcome.Err = r.exchange(ctx, inv, &sess)
}

func (r *Runner) exchange(ctx context.Context, inv *Invocation, sessp **session.Session) error {
	if !r.adapter.IsAvailable(ctx) {
		r.emit(event.Append(MsgMissingAdapter))
		return device.ErrAdapterUnavailable
	}

	candidates, err := r.adapter.BondedDevices(ctx)
	if err != nil {
		r.emitError(err)
		return err
	}

	target, ok := r.catalog.ResolveTarget(candidates, r.opts.AllowList, event.SinkFunc(r.emit))
	if !ok {
		r.emit(event.Appendf(MsgNoDevice, r.opts.AllowList))
		r.emit(event.Append(MsgPairHint))
		return device.ErrNoMatchingDevice
	}
	inv.outcome.Target = target

	r.emit(event.Appendf(MsgUsing, target.Address))
	r.emit(event.Append(MsgOpening))

	sess := session.New(r.adapter, r.logger)
	sess.OnCloseError(func(err *device.TransportError) {
		inv.outcome.CloseErrors = append(inv.outcome.CloseErrors, err)
	})
	*sessp = sess

	connectCtx, cancel := r.connectContext(ctx)
	err = sess.Connect(connectCtx, target, r.opts.ServiceID)
	cancel()
	if err != nil {
		r.emitError(err)
		return err
	}
	r.emit(event.Append(MsgOpened))

	r.emit(event.Appendf(MsgSending, device.DecodeText(r.opts.Payload)))
	if err := sess.Send(r.opts.Payload); err != nil {
		r.emitError(err)
		return err
	}

	r.emit(event.Appendf(MsgWaiting, r.opts.ResponseTimeout))
	resp, err := sess.AwaitAndReceive(ctx, r.opts.ResponseTimeout)
	if err != nil {
		r.emitError(err)
		return err
	}
	inv.outcome.Response = resp

	r.emit(event.Appendf(MsgReceived, device.DecodeText(resp)))
	return nil
}

func (r *Runner) connectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.ConnectTimeout > 0 {
		return context.WithTimeout(ctx, r.opts.ConnectTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) emitError(err error) {
	r.emit(event.Appendf(MsgError, err))
}

func (r *Runner) emit(ev event.Event) {
	r.queue.Send(delivery{ev: ev})
}

func (r *Runner) emitAndWait(ev event.Event) {
	ack := make(chan struct{})
	r.queue.Send(delivery{ev: ev, ack: ack})
	<-ack
}

// dispatch is the single consumer of the event queue.
func (r *Runner) dispatch(_ context.Context) {
	for {
		d, ok := r.queue.Receive()
		if !ok {
			return
		}
		r.deliver(d.ev)
		if d.ack != nil {
			close(d.ack)
		}
	}
}

func (r *Runner) deliver(ev event.Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()

	if r.observer == nil {
		r.logger.WithField("event", ev.String()).Debug("No observer registered, event dropped")
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.WithFields(logrus.Fields{"event": ev.String(), "panic": p}).Error("Observer panicked")
		}
	}()
	r.observer.Notify(ev)
}
