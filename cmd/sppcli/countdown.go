package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const (
	countdownInterval = 100 * time.Millisecond
	clearLineSequence = "\r\033[K"
)

// Countdown shows the time left in a fixed window on a single, rewritten line.
//
// A Countdown is single-use: Start may be called at most once and Stop
// releases the goroutine and clears the line. Stop is safe to call repeatedly.
type Countdown struct {
	out      io.Writer
	label    string
	duration time.Duration

	started atomic.Bool
	ticker  atomic.Pointer[time.Ticker]
	stop    chan struct{}
	done    chan struct{}
}

// NewCountdown creates a countdown from duration.
func NewCountdown(out io.Writer, label string, duration time.Duration) *Countdown {
	return &Countdown{out: out, label: label, duration: duration}
}

// Start begins updating the line in the background. Panics when called twice.
func (c *Countdown) Start() {
	if !c.started.CompareAndSwap(false, true) {
		panic("Countdown.Start called more than once")
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	ticker := time.NewTicker(countdownInterval)
	c.ticker.Store(ticker)

	begin := time.Now()
	c.print(c.duration)

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.print(c.duration - time.Since(begin))
			}
		}
	}()
}

func (c *Countdown) print(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	fmt.Fprintf(c.out, "\r%s (%.1fs left)   ", c.label, remaining.Seconds())
}

// Stop ends the countdown and clears its line.
func (c *Countdown) Stop() {
	ticker := c.ticker.Swap(nil)
	if ticker == nil {
		return
	}
	ticker.Stop()
	close(c.stop)
	<-c.done
	fmt.Fprint(c.out, clearLineSequence)
}
