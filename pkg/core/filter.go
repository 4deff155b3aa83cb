package core

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterSet decides whether a notification payload is admitted for
// display. Entries are matched case-insensitively against every key and
// every stringified value of the payload. A plain entry matches as a
// substring; an entry containing glob metacharacters ('*', '?', '[')
// matches as a doublestar pattern, so "com.spam.*" can suppress a whole
// notification source.
//
// The set is read-only during dispatch; an empty set admits everything.
type FilterSet struct {
	entries []string
}

// NewFilterSet builds a filter set. Entries are lowercased; empty
// entries are dropped.
func NewFilterSet(entries ...string) *FilterSet {
	f := &FilterSet{}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			f.entries = append(f.entries, e)
		}
	}
	return f
}

// Len returns the number of configured entries.
func (f *FilterSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.entries)
}

// Admit reports whether the payload should be stored. True if the set
// is empty, or if any entry matches any key or value.
func (f *FilterSet) Admit(payload Fields) bool {
	if f.Len() == 0 {
		return true
	}
	for _, entry := range f.entries {
		for k, v := range payload {
			if matchEntry(entry, k) || matchEntry(entry, fmt.Sprint(v)) {
				return true
			}
		}
	}
	return false
}

func matchEntry(entry, s string) bool {
	s = strings.ToLower(s)
	if strings.ContainsAny(entry, "*?[") {
		ok, err := doublestar.Match(entry, s)
		return err == nil && ok
	}
	return strings.Contains(s, entry)
}
