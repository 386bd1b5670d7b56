// Package testutils holds assertions and suites shared by the package tests.
package testutils

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/pkg/event"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
}

// NewTestHelper creates a test helper with a debug logger.
func NewTestHelper(t *testing.T) *TestHelper {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	return &TestHelper{
		T:      t,
		Logger: logger,
	}
}

// Transcript renders events one per line, e.g.
//
//	ButtonsDisabled
//	StatusReplaced("The following devices are paired")
func Transcript(events []event.Event) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
