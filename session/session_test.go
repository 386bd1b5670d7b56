package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/internal/device/simulated"
	"github.com/srg/sppcli/session"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const window = 20 * time.Millisecond

var hc05 = device.PeripheralDescriptor{Address: "00:00:00:00:00:01", DisplayName: "HC-05"}

type SessionTestSuite struct {
	suite.Suite

	logger *logrus.Logger
	ctx    context.Context
}

func (s *SessionTestSuite) SetupTest() {
	s.logger = logrus.New()
	s.logger.SetLevel(logrus.TraceLevel)
	s.ctx = context.Background()
}

func (s *SessionTestSuite) newSession(b *simulated.AdapterBuilder) (*session.Session, *simulated.Adapter) {
	a := b.Build()
	return session.New(a, s.logger), a
}

func (s *SessionTestSuite) connected(b *simulated.AdapterBuilder) (*session.Session, *simulated.Link) {
	sess, a := s.newSession(b)
	s.Require().NoError(sess.Connect(s.ctx, hc05, device.SerialPortServiceID))
	return sess, a.LastLink()
}

func (s *SessionTestSuite) TestFullExchange() {
	sess, a := s.newSession(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName).WithResponse("OK\n"))
	s.Equal(session.Idle, sess.State())

	s.Require().NoError(sess.Connect(s.ctx, hc05, device.SerialPortServiceID))
	s.Equal(session.Connected, sess.State())
	s.Equal(hc05, sess.Target())

	s.Require().NoError(sess.Send([]byte("Hello\n")))
	s.Equal([]byte("Hello\n"), a.LastLink().Received(), "request MUST be flushed before Send returns")

	started := time.Now()
	resp, err := sess.AwaitAndReceive(s.ctx, window)
	s.Require().NoError(err)
	s.GreaterOrEqual(time.Since(started), window, "the full window MUST elapse before reading")
	s.Equal([]byte("OK\n"), resp)
	s.Equal(session.Closed, sess.State())

	sess.Close()
	link := a.LastLink()
	s.Equal(1, link.Releases(device.ResourceInput))
	s.Equal(1, link.Releases(device.ResourceOutput))
	s.Equal(1, link.Releases(device.ResourceSocket))
	s.Equal(session.Closed, sess.State())
}

func (s *SessionTestSuite) TestEmptyWindowIsNotAnError() {
	sess, _ := s.connected(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName))
	s.Require().NoError(sess.Send([]byte("Hello\n")))

	resp, err := sess.AwaitAndReceive(s.ctx, window)

	s.NoError(err)
	s.NotNil(resp)
	s.Empty(resp)
}

func (s *SessionTestSuite) TestLateResponseIsOutsideTheWindow() {
	sess, _ := s.connected(simulated.NewAdapterBuilder().
		WithPeripheral(hc05.Address, hc05.DisplayName).
		WithResponse("late").
		WithResponseDelay(time.Second))
	s.Require().NoError(sess.Send([]byte("Hello\n")))

	resp, err := sess.AwaitAndReceive(s.ctx, window)

	s.NoError(err)
	s.Empty(resp)
	sess.Close()
}

func (s *SessionTestSuite) TestReadsOnlyWhatIsAvailable() {
	sess, link := s.connected(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName))
	link.Inject([]byte("partial"))

	resp, err := sess.AwaitAndReceive(s.ctx, 0)

	s.NoError(err)
	s.Equal("partial", string(resp))
}

func (s *SessionTestSuite) TestConnectFailure() {
	sess, a := s.newSession(simulated.NewAdapterBuilder().
		WithPeripheral(hc05.Address, hc05.DisplayName).
		WithConnectError("connection refused"))

	err := sess.Connect(s.ctx, hc05, device.SerialPortServiceID)

	s.ErrorIs(err, device.ErrConnectFailed)
	s.EqualError(err, "connection refused")
	s.Equal(session.Failed, sess.State())
	s.Nil(a.LastLink())

	sess.Close()
	s.Equal(session.Failed, sess.State(), "Close MUST NOT hide the failure")
}

func (s *SessionTestSuite) TestWriteFailure() {
	sess, link := s.connected(simulated.NewAdapterBuilder().
		WithPeripheral(hc05.Address, hc05.DisplayName).
		WithWriteError("broken pipe"))

	err := sess.Send([]byte("Hello\n"))

	s.ErrorIs(err, device.ErrWriteFailed)
	s.Equal(session.Failed, sess.State())

	_, err = sess.AwaitAndReceive(s.ctx, window)
	s.ErrorIs(err, session.ErrInvalidState)

	sess.Close()
	s.Equal(1, link.Releases(device.ResourceInput))
	s.Equal(1, link.Releases(device.ResourceOutput))
	s.Equal(1, link.Releases(device.ResourceSocket))
}

func (s *SessionTestSuite) TestReadFailure() {
	sess, _ := s.connected(simulated.NewAdapterBuilder().
		WithPeripheral(hc05.Address, hc05.DisplayName).
		WithReadError("connection reset by peer"))

	_, err := sess.AwaitAndReceive(s.ctx, 0)

	s.ErrorIs(err, device.ErrReadFailed)
	s.EqualError(err, "connection reset by peer")
	s.Equal(session.Failed, sess.State())
}

func (s *SessionTestSuite) TestContextCancelledDuringWindow() {
	sess, _ := s.connected(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName))

	ctx, cancel := context.WithCancel(s.ctx)
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := sess.AwaitAndReceive(ctx, time.Minute)

	s.ErrorIs(err, device.ErrReadFailed)
	s.ErrorIs(err, context.Canceled)
}

func (s *SessionTestSuite) TestCloseIsIdempotent() {
	sess, link := s.connected(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName))

	sess.Close()
	sess.Close()

	s.Equal(1, link.Releases(device.ResourceInput))
	s.Equal(1, link.Releases(device.ResourceOutput))
	s.Equal(1, link.Releases(device.ResourceSocket))
}

func (s *SessionTestSuite) TestCloseFailuresAreIndependent() {
	sess, link := s.connected(simulated.NewAdapterBuilder().
		WithPeripheral(hc05.Address, hc05.DisplayName).
		WithCloseError(device.ResourceInput, "EBADF").
		WithCloseError(device.ResourceSocket, "EIO"))

	var reported []*device.TransportError
	sess.OnCloseError(func(err *device.TransportError) { reported = append(reported, err) })

	s.NotPanics(sess.Close)

	s.Require().Len(reported, 2)
	s.Equal(device.ResourceInput, reported[0].Resource)
	s.Equal(device.ResourceSocket, reported[1].Resource)
	s.ErrorIs(reported[0], device.ErrCloseFailed)
	s.Equal(1, link.Releases(device.ResourceOutput), "output MUST be released despite input failure")
	s.Equal(1, link.Releases(device.ResourceSocket))
	s.Equal(session.Closed, sess.State())
}

func (s *SessionTestSuite) TestCloseWhileIdle() {
	sess, _ := s.newSession(simulated.NewAdapterBuilder())

	sess.Close()

	s.Equal(session.Closed, sess.State())
	s.ErrorIs(sess.Connect(s.ctx, hc05, device.SerialPortServiceID), session.ErrInvalidState, "a session MUST NOT be reused")
}

func (s *SessionTestSuite) TestOperationsOutOfOrder() {
	sess, _ := s.newSession(simulated.NewAdapterBuilder().WithPeripheral(hc05.Address, hc05.DisplayName))

	s.ErrorIs(sess.Send([]byte("x")), session.ErrInvalidState)
	_, err := sess.AwaitAndReceive(s.ctx, 0)
	s.ErrorIs(err, session.ErrInvalidState)

	s.Require().NoError(sess.Connect(s.ctx, hc05, device.SerialPortServiceID))
	s.ErrorIs(sess.Connect(s.ctx, hc05, device.SerialPortServiceID), session.ErrInvalidState)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

type mockDialer struct {
	mock.Mock
}

func (m *mockDialer) Dial(ctx context.Context, target device.PeripheralDescriptor, serviceID uuid.UUID) (device.Link, error) {
	args := m.Called(ctx, target, serviceID)
	link, _ := args.Get(0).(device.Link)
	return link, args.Error(1)
}

func TestConnect_NormalizesPlatformErrors(t *testing.T) {
	d := new(mockDialer)
	d.On("Dial", mock.Anything, hc05, device.SerialPortServiceID).
		Return(nil, errors.New("org.bluez.Error.NotReady: Resource Not Ready")).
		Once()

	sess := session.New(d, nil)
	err := sess.Connect(context.Background(), hc05, device.SerialPortServiceID)

	if !errors.Is(err, device.ErrConnectFailed) || !errors.Is(err, device.ErrAdapterUnavailable) {
		t.Fatalf("want ConnectFailed wrapping ErrAdapterUnavailable, got %v", err)
	}
	d.AssertExpectations(t)
}

func TestState_String(t *testing.T) {
	for state, want := range map[session.State]string{
		session.Idle:             "idle",
		session.Connecting:       "connecting",
		session.Connected:        "connected",
		session.AwaitingResponse: "awaiting_response",
		session.Closed:           "closed",
		session.Failed:           "failed",
		session.State(99):        "state(99)",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
	if !session.Closed.Terminal() || !session.Failed.Terminal() || session.Connected.Terminal() {
		t.Error("only Closed and Failed are terminal")
	}
}
