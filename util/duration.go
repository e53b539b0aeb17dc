package util

import (
	"time"

	"github.com/pkg/errors"
)

// ParseDuration parses a human duration string ("30s", "5m", "1h",
// "2h30m", "3600s") into a time.Duration. It rejects strings with a
// missing or unrecognized unit ("10 minutes" has neither).
//
// time.ParseDuration already implements exactly this grammar (a
// signed sequence of decimal numbers, each with a mandatory unit
// suffix) and is the idiomatic way to express it in Go; this wrapper
// exists only to attach call-site error context.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("duration string is empty")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}
