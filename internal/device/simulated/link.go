package simulated

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
	"github.com/srg/sppcli/internal/device"
)

// inboundCapacity bounds the bytes a peripheral may have pending.
const inboundCapacity = 4096

// ErrWouldBlock is returned by Read when no bytes are pending.
var ErrWouldBlock = errors.New("read would block")

// Link is an in-memory device.Link to a scripted peripheral.
type Link struct {
	cfg    PeripheralConfig
	logger *logrus.Logger

	inbound *ringbuffer.RingBuffer
	input   *inputStream
	output  *outputStream

	mu       sync.Mutex
	pending  bytes.Buffer // written, not yet flushed
	received bytes.Buffer // flushed requests as seen by the peripheral
	releases map[device.Resource]int
	closed   bool
	timers   []*time.Timer
}

func newLink(cfg PeripheralConfig, logger *logrus.Logger) *Link {
	l := &Link{
		cfg:      cfg,
		logger:   logger,
		inbound:  ringbuffer.New(inboundCapacity),
		releases: make(map[device.Resource]int),
	}
	l.input = &inputStream{link: l}
	l.output = &outputStream{link: l}
	return l
}

// Input returns the receiving stream.
func (l *Link) Input() device.InputStream { return l.input }

// Output returns the sending stream.
func (l *Link) Output() device.OutputStream { return l.output }

// Close releases the socket. Pending delayed responses are discarded.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releases[device.ResourceSocket]++
	l.closed = true
	for _, t := range l.timers {
		t.Stop()
	}
	l.timers = nil

	return l.closeErrorLocked(device.ResourceSocket)
}

// Received returns every flushed request, concatenated.
func (l *Link) Received() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bytes.Clone(l.received.Bytes())
}

// Releases returns how many times resource was released.
func (l *Link) Releases(resource device.Resource) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releases[resource]
}

// Inject makes data available to the reader immediately, as if the peripheral
// sent it unprompted.
func (l *Link) Inject(data []byte) {
	l.deliver(data)
}

func (l *Link) deliver(data []byte) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed || len(data) == 0 {
		return
	}

	n, err := l.inbound.Write(data)
	if err != nil {
		l.logger.WithError(err).WithField("dropped", len(data)-n).Warn("Simulated inbound buffer full")
	}
}

func (l *Link) closeErrorLocked(resource device.Resource) error {
	if msg := l.cfg.CloseErrors[resource]; msg != "" {
		return errors.New(msg)
	}
	return nil
}

// respond schedules the scripted answer to request.
func (l *Link) respond(request []byte) {
	var response []byte
	switch {
	case l.cfg.Echo:
		response = bytes.Clone(request)
	case l.cfg.Response != "":
		response, _ = device.EncodeText(l.cfg.Response)
	}
	if len(response) == 0 {
		return
	}

	if l.cfg.ResponseDelay <= 0 {
		l.deliver(response)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.timers = append(l.timers, time.AfterFunc(l.cfg.ResponseDelay, func() { l.deliver(response) }))
}

type inputStream struct {
	link *Link
}

func (s *inputStream) Available() (int, error) {
	if msg := s.link.cfg.ReadError; msg != "" {
		return 0, errors.New(msg)
	}
	return s.link.inbound.Length(), nil
}

func (s *inputStream) Read(p []byte) (int, error) {
	if msg := s.link.cfg.ReadError; msg != "" {
		return 0, errors.New(msg)
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.link.inbound.TryRead(p)
	if errors.Is(err, ringbuffer.ErrIsEmpty) {
		s.link.mu.Lock()
		closed := s.link.closed
		s.link.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		return 0, ErrWouldBlock
	}
	return n, err
}

func (s *inputStream) Close() error {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	s.link.releases[device.ResourceInput]++
	return s.link.closeErrorLocked(device.ResourceInput)
}

type outputStream struct {
	link *Link
}

func (s *outputStream) Write(p []byte) (int, error) {
	if msg := s.link.cfg.WriteError; msg != "" {
		return 0, errors.New(msg)
	}

	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	if s.link.closed {
		return 0, io.ErrClosedPipe
	}
	return s.link.pending.Write(p)
}

func (s *outputStream) Flush() error {
	s.link.mu.Lock()
	if s.link.closed {
		s.link.mu.Unlock()
		return io.ErrClosedPipe
	}
	request := bytes.Clone(s.link.pending.Bytes())
	s.link.pending.Reset()
	s.link.received.Write(request)
	s.link.mu.Unlock()

	if len(request) > 0 {
		s.link.respond(request)
	}
	return nil
}

func (s *outputStream) Close() error {
	s.link.mu.Lock()
	defer s.link.mu.Unlock()
	s.link.releases[device.ResourceOutput]++
	return s.link.closeErrorLocked(device.ResourceOutput)
}
