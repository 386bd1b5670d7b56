package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/pkg/event"
	"github.com/srg/sppcli/runner"
	"golang.org/x/term"
)

var (
	errorPrefix, _, _   = strings.Cut(runner.MsgError, "%s")
	waitingPrefix, _, _ = strings.Cut(runner.MsgWaiting, "%s")
)

// ConsoleObserver prints the status transcript of a run. A StatusReplaced
// event starts a new section; ButtonsDisabled/ButtonsEnabled only matter to
// graphical hosts and are logged.
type ConsoleObserver struct {
	out         io.Writer
	logger      *logrus.Logger
	interactive bool
	window      time.Duration

	heading *color.Color
	failure *color.Color

	mu        sync.Mutex
	printed   bool
	countdown *Countdown
}

// NewConsoleObserver creates an observer writing to out. Colors and the
// response countdown are only used when out is a terminal; window is the
// response window the countdown counts down from.
func NewConsoleObserver(out io.Writer, window time.Duration, logger *logrus.Logger) *ConsoleObserver {
	if logger == nil {
		logger = logrus.New()
	}
	c := &ConsoleObserver{
		out:         out,
		logger:      logger,
		interactive: isTerminal(out),
		window:      window,
		heading:     color.New(color.Bold),
		failure:     color.New(color.FgRed),
	}
	if c.interactive && !color.NoColor {
		c.heading.EnableColor()
		c.failure.EnableColor()
	} else {
		c.heading.DisableColor()
		c.failure.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Notify renders e.
func (c *ConsoleObserver) Notify(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}

	switch e.Kind {
	case event.StatusReplaced:
		if c.printed {
			fmt.Fprintln(c.out)
		}
		fmt.Fprintln(c.out, c.heading.Sprint(printable(e.Text)))
	case event.StatusAppended:
		text := printable(e.Text)
		if strings.HasPrefix(text, errorPrefix) {
			text = c.failure.Sprint(text)
		}
		fmt.Fprintln(c.out, text)
		if c.interactive && c.window > 0 && strings.HasPrefix(e.Text, waitingPrefix) {
			c.countdown = NewCountdown(c.out, "Listening", c.window)
			c.countdown.Start()
		}
	default:
		c.logger.WithField("event", e.Kind).Debug("Controls toggled")
		return
	}
	c.printed = true
}

// Close stops a running countdown.
func (c *ConsoleObserver) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
}

// printable drops the line terminators a request or response usually ends
// with and escapes any other control characters.
func printable(text string) string {
	text = strings.TrimRight(text, "\r\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r >= 0x20 && r != 0x7f {
			return r
		}
		return '.'
	}, text)
}
