package feedparse

import (
	"time"

	"github.com/araddon/dateparse"
)

// firstTime returns the first usable publish time from a list of candidates.
// A candidate is either an already-parsed *time.Time or a raw date string
// handed to the lenient parser. Absence of any usable candidate is a valid
// outcome: the item simply has no known publish time.
func firstTime(candidates ...any) *time.Time {
	for _, c := range candidates {
		switch v := c.(type) {
		case *time.Time:
			if v != nil && !v.IsZero() {
				t := v.UTC()
				return &t
			}
		case string:
			if v == "" {
				continue
			}
			if t, err := dateparse.ParseAny(v); err == nil && !t.IsZero() {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}
