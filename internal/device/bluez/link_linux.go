//go:build linux

package bluez

import (
	"bufio"
	"os"
	"sync"

	"github.com/srg/sppcli/internal/device"
	"golang.org/x/sys/unix"
)

// link wraps an RFCOMM stream socket. Input and output are released with
// shutdown(2) so each direction can fail independently of the socket.
type link struct {
	fd   int
	file *os.File

	input  *inputStream
	output *outputStream
}

func newLink(fd int) *link {
	l := &link{fd: fd, file: os.NewFile(uintptr(fd), "rfcomm")}
	l.input = &inputStream{link: l}
	l.output = &outputStream{link: l, w: bufio.NewWriter(l.file)}
	return l
}

func (l *link) Input() device.InputStream { return l.input }

func (l *link) Output() device.OutputStream { return l.output }

func (l *link) Close() error {
	return l.file.Close()
}

type inputStream struct {
	link *link
}

// Available returns the number of bytes queued on the socket.
func (s *inputStream) Available() (int, error) {
	return unix.IoctlGetInt(s.link.fd, unix.TIOCINQ) // TIOCINQ == FIONREAD on Linux
}

func (s *inputStream) Read(p []byte) (int, error) {
	return s.link.file.Read(p)
}

func (s *inputStream) Close() error {
	return unix.Shutdown(s.link.fd, unix.SHUT_RD)
}

type outputStream struct {
	link *link

	mu sync.Mutex
	w  *bufio.Writer
}

func (s *outputStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *outputStream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

func (s *outputStream) Close() error {
	return unix.Shutdown(s.link.fd, unix.SHUT_WR)
}
