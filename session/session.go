// Package session manages a single connection attempt to a serial peripheral:
// connect, one request, one timed response window, and release.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
)

// ErrInvalidState is returned when an operation is not allowed in the current state.
var ErrInvalidState = errors.New("invalid session state")

// Dialer opens links. device.Adapter satisfies it.
type Dialer interface {
	Dial(ctx context.Context, target device.PeripheralDescriptor, serviceID uuid.UUID) (device.Link, error)
}

// CloseErrorHandler is told about every resource that failed to release.
type CloseErrorHandler func(err *device.TransportError)

// Session owns at most one link. It is created per run and never reused.
//
// A Session is driven by a single goroutine; only State and Close may be
// called from elsewhere.
type Session struct {
	dialer Dialer
	logger *logrus.Logger

	mu           sync.Mutex
	state        State
	link         device.Link
	target       device.PeripheralDescriptor
	released     bool
	onCloseError CloseErrorHandler
}

// New creates an idle session.
func New(dialer Dialer, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{dialer: dialer, logger: logger, state: Idle}
}

// OnCloseError installs a handler for per-resource release failures.
func (s *Session) OnCloseError(fn CloseErrorHandler) {
	s.mu.Lock()
	s.onCloseError = fn
	s.mu.Unlock()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens a channel to target for serviceID. The wait is bounded by the
// dialer and by ctx.
func (s *Session) Connect(ctx context.Context, target device.PeripheralDescriptor, serviceID uuid.UUID) error {
	if err := s.transition(Idle, Connecting); err != nil {
		return err
	}
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"address": target.Address,
		"service": device.FormatServiceID(serviceID),
	}).Debug("Connecting...")

	link, err := s.dialer.Dial(ctx, target, serviceID)
	if err != nil {
		s.fail()
		s.logger.WithError(err).WithField("address", target.Address).Debug("Connect failed")
		return device.NewTransportError(device.ConnectFailed, device.NormalizeError(err))
	}

	s.mu.Lock()
	s.link = link
	released := s.released
	s.mu.Unlock()

	// Close raced with the dial; release what we just got.
	if released {
		s.releaseLink(link)
		return device.NewTransportError(device.ConnectFailed, fmt.Errorf("%w: closed while connecting", ErrInvalidState))
	}

	if err := s.transition(Connecting, Connected); err != nil {
		return err
	}
	s.logger.WithField("address", target.Address).Debug("Connection is open")
	return nil
}

// Send writes data and flushes it before returning.
func (s *Session) Send(data []byte) error {
	link, err := s.requireLink(Connected, "send")
	if err != nil {
		return err
	}

	out := link.Output()
	n, err := out.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		s.fail()
		return device.NewTransportError(device.WriteFailed, err)
	}

	s.logger.WithField("bytes", n).Debug("Request sent")
	return nil
}

// AwaitAndReceive waits for exactly timeout, then returns whatever bytes are
// available at that moment without blocking further. The response boundary is
// the window itself: nothing arriving in time yields an empty, non-nil slice.
func (s *Session) AwaitAndReceive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	link, err := s.requireLink(Connected, "receive")
	if err != nil {
		return nil, err
	}
	if err := s.transition(Connected, AwaitingResponse); err != nil {
		return nil, err
	}

	if err := sleep(ctx, timeout); err != nil {
		s.fail()
		return nil, device.NewTransportError(device.ReadFailed, err)
	}

	in := link.Input()
	avail, err := in.Available()
	if err != nil {
		s.fail()
		return nil, device.NewTransportError(device.ReadFailed, err)
	}

	buf := make([]byte, avail)
	if avail > 0 {
		if _, err := io.ReadFull(in, buf); err != nil {
			s.fail()
			return nil, device.NewTransportError(device.ReadFailed, err)
		}
	}
	s.logger.WithField("bytes", avail).Debug("Received response")

	if err := s.transition(AwaitingResponse, Closed); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the input stream, the output stream and the socket, each
// independently. Release failures are logged and handed to the OnCloseError
// handler; they never stop the remaining releases. Calling Close again is a
// no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	link := s.link
	if s.state != Failed {
		s.state = Closed
	}
	s.mu.Unlock()

	if link != nil {
		s.releaseLink(link)
	}
}

func (s *Session) releaseLink(link device.Link) {
	s.release(device.ResourceInput, func() error { return link.Input().Close() })
	s.release(device.ResourceOutput, func() error { return link.Output().Close() })
	s.release(device.ResourceSocket, link.Close)
}

func (s *Session) release(resource device.Resource, closeFn func() error) {
	err := closeFn()
	if err == nil {
		return
	}

	cerr := device.NewCloseError(resource, err)
	s.logger.WithError(err).WithField("resource", resource).Warn("Failed to release resource")

	s.mu.Lock()
	handler := s.onCloseError
	s.mu.Unlock()
	if handler != nil {
		handler(cerr)
	}
}

func (s *Session) requireLink(want State, op string) (device.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != want || s.link == nil {
		return nil, fmt.Errorf("%w: %s while %s", ErrInvalidState, op, s.state)
	}
	return s.link, nil
}

func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%w: %s -> %s while %s", ErrInvalidState, from, to, s.state)
	}
	s.state = to
	s.logger.WithFields(logrus.Fields{"from": from, "to": to}).Trace("Session state changed")
	return nil
}

func (s *Session) fail() {
	s.mu.Lock()
	s.state = Failed
	s.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Target returns the peripheral passed to Connect.
func (s *Session) Target() device.PeripheralDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}
