package device

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultAllowedNames are the display names of the serial modules targeted by default.
var DefaultAllowedNames = []string{"BTM-222", "HC-05", "HC-06", "linvor"}

// AllowList is an ordered set of acceptable display names. Duplicates collapse
// onto the first occurrence. An empty list never matches.
type AllowList struct {
	names *orderedmap.OrderedMap[string, struct{}]
}

// NewAllowList builds an AllowList from names.
func NewAllowList(names ...string) *AllowList {
	l := &AllowList{names: orderedmap.New[string, struct{}]()}
	for _, n := range names {
		l.names.Set(n, struct{}{})
	}
	return l
}

// DefaultAllowList returns a fresh AllowList holding DefaultAllowedNames.
func DefaultAllowList() *AllowList {
	return NewAllowList(DefaultAllowedNames...)
}

// Contains reports whether name is allowed. Matching is exact and case-sensitive.
func (l *AllowList) Contains(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.names.Get(name)
	return ok
}

// Len returns the number of distinct names.
func (l *AllowList) Len() int {
	if l == nil {
		return 0
	}
	return l.names.Len()
}

// Names returns the names in insertion order.
func (l *AllowList) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, l.names.Len())
	for pair := l.names.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// String renders the list as "[a, b, c]".
func (l *AllowList) String() string {
	return "[" + strings.Join(l.Names(), ", ") + "]"
}
