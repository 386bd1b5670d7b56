package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/srg/sppcli/internal/device"
)

// DefaultPayload is the request sent to the peripheral.
const DefaultPayload = "Hello\n"

// Options configures every invocation of a Runner.
type Options struct {
	AllowList       *device.AllowList
	ServiceID       uuid.UUID
	Payload         []byte
	ResponseTimeout time.Duration
	// ConnectTimeout bounds Dial on top of the platform's own timeout; 0 leaves it to the platform.
	ConnectTimeout time.Duration
	// QueueCapacity is the number of events buffered ahead of a slow observer.
	QueueCapacity int
}

// DefaultOptions returns the stock allow-list, SPP service, "Hello\n" request
// and a one second response window.
func DefaultOptions() Options {
	return Options{
		AllowList:       device.DefaultAllowList(),
		ServiceID:       device.SerialPortServiceID,
		Payload:         []byte(DefaultPayload),
		ResponseTimeout: time.Second,
		ConnectTimeout:  30 * time.Second,
		QueueCapacity:   64,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AllowList == nil {
		o.AllowList = def.AllowList
	}
	if o.ServiceID == uuid.Nil {
		o.ServiceID = def.ServiceID
	}
	if o.Payload == nil {
		o.Payload = def.Payload
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = def.QueueCapacity
	}
	return o
}
