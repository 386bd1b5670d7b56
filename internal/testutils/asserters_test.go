package testutils

import (
	"fmt"
	"testing"

	"github.com/srg/sppcli/pkg/event"
	"github.com/stretchr/testify/assert"
)

type recordingT struct {
	errors []string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserter(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		pass     bool
	}{
		{"identical", nil, "a\nb", "a\nb", true},
		{"surrounding space trimmed by default", nil, "\n a\nb\n\n", "a\nb", true},
		{"trim disabled", []TextOption{WithTrimSpace(false)}, "a\n", "a", false},
		{"trailing whitespace significant by default", nil, "a  \nb", "a\nb", false},
		{"trailing whitespace ignored", []TextOption{WithIgnoreTrailingWhitespace(true)}, "a  \nb\t", "a\nb", true},
		{"different line", nil, "a\nc", "a\nb", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingT{}
			ok := NewTextAsserter(rt, tt.opts...).Assert(tt.actual, tt.expected)
			assert.Equal(t, tt.pass, ok)
			assert.Equal(t, tt.pass, len(rt.errors) == 0)
		})
	}
}

func TestTextAsserter_DiffShowsChangedLines(t *testing.T) {
	d := NewTextAsserter(&recordingT{}).Diff("one\nthree", "one\ntwo")
	assert.Contains(t, d, "-two")
	assert.Contains(t, d, "+three")

	colored := NewTextAsserter(&recordingT{}, WithEnableColors(true)).Diff("a b", "a")
	assert.Contains(t, colored, "a·b", "whitespace is made visible in colored diffs")
}

func TestTextAsserter_AssertTranscript(t *testing.T) {
	rt := &recordingT{}
	ok := NewTextAsserter(rt).AssertTranscript([]event.Event{
		event.Disable(),
		event.Replace("header"),
		event.Append("line"),
		event.Enable(),
	}, `
ButtonsDisabled
StatusReplaced("header")
StatusAppended("line")
ButtonsEnabled
`)
	assert.True(t, ok, rt.errors)
}

func TestJSONAsserter(t *testing.T) {
	tests := []struct {
		name     string
		opts     []JSONOption
		actual   string
		expected string
		pass     bool
	}{
		{"equal objects", nil, `{"a":1,"b":"x"}`, `{"b":"x","a":1}`, true},
		{"extra keys ignored", nil, `{"a":1,"b":2}`, `{"a":1}`, true},
		{"extra keys reported", []JSONOption{WithIgnoreExtraKeys(false)}, `{"a":1,"b":2}`, `{"a":1}`, false},
		{"value differs", nil, `{"a":1}`, `{"a":2}`, false},
		{"root arrays", nil, `[{"a":1},{"a":2}]`, `[{"a":1},{"a":2}]`, true},
		{"array order matters", nil, `[1,2]`, `[2,1]`, false},
		{"presence placeholder", nil, `{"id":"f00","a":1}`, `{"id":"<<PRESENCE>>","a":1}`, true},
		{"placeholder requires presence", nil, `{"a":1}`, `{"id":"<<PRESENCE>>","a":1}`, false},
		{"placeholder disabled", []JSONOption{WithAllowPresencePlaceholder(false)}, `{"id":"f00"}`, `{"id":"<<PRESENCE>>"}`, false},
		{"invalid actual", nil, `{`, `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingT{}
			ok := NewJSONAsserter(rt, tt.opts...).Assert(tt.actual, tt.expected)
			assert.Equal(t, tt.pass, ok, rt.errors)
		})
	}
}

func TestTranscript(t *testing.T) {
	assert.Equal(t, "", Transcript(nil))
	assert.Equal(t, "ButtonsDisabled\nStatusAppended(\"x\")", Transcript([]event.Event{event.Disable(), event.Append("x")}))
}
