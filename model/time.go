package model

import (
	"fmt"
	"math"
	"time"
)

// Instant is an absolute point on the acquisition time axis. It is stored as
// integer nanoseconds since the Unix epoch so that ordering and equality are
// exact and never depend on floating point re-derivation.
type Instant struct {
	ns int64
}

// Duration is a signed span between two Instants, in nanoseconds.
type Duration int64

// InstantFromTime converts a wall-clock time into an Instant.
func InstantFromTime(t time.Time) Instant {
	return Instant{ns: t.UnixNano()}
}

// InstantFromSeconds builds an Instant from seconds since the Unix epoch.
// It is mostly useful for synthetic scenes and tests.
func InstantFromSeconds(s float64) Instant {
	return Instant{ns: int64(math.Round(s * 1e9))}
}

// ParseInstant parses an RFC 3339 timestamp with optional fractional seconds.
// A missing zone designator is interpreted as UTC, which is how SAR product
// annotations write their azimuth times.
func ParseInstant(s string) (Instant, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return InstantFromTime(t), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return Instant{}, fmt.Errorf("parse instant %q: %w", s, err)
	}
	return InstantFromTime(t), nil
}

// Time returns the Instant as a UTC time.Time.
func (i Instant) Time() time.Time {
	return time.Unix(0, i.ns).UTC()
}

// UnixNano returns the raw nanosecond count.
func (i Instant) UnixNano() int64 { return i.ns }

// Sub returns i - other.
func (i Instant) Sub(other Instant) Duration {
	return Duration(i.ns - other.ns)
}

// Add returns i shifted by d.
func (i Instant) Add(d Duration) Instant {
	return Instant{ns: i.ns + int64(d)}
}

// Before reports whether i is strictly earlier than other.
func (i Instant) Before(other Instant) bool { return i.ns < other.ns }

// After reports whether i is strictly later than other.
func (i Instant) After(other Instant) bool { return i.ns > other.ns }

// Equal reports whether both instants denote the same nanosecond.
func (i Instant) Equal(other Instant) bool { return i.ns == other.ns }

// Compare returns -1, 0 or +1 like cmp.Compare.
func (i Instant) Compare(other Instant) int {
	switch {
	case i.ns < other.ns:
		return -1
	case i.ns > other.ns:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether i is the zero Instant (the Unix epoch).
func (i Instant) IsZero() bool { return i.ns == 0 }

// String formats the instant as RFC 3339 with nanoseconds.
func (i Instant) String() string {
	return i.Time().Format(time.RFC3339Nano)
}

// Seconds builds a Duration from (fractional) seconds, rounded to the nanosecond.
func Seconds(s float64) Duration {
	return Duration(math.Round(s * 1e9))
}

// Microseconds builds a Duration from (fractional) microseconds.
func Microseconds(us float64) Duration {
	return Duration(math.Round(us * 1e3))
}

// Seconds returns d as floating point seconds.
func (d Duration) Seconds() float64 { return float64(d) / 1e9 }

// Microseconds returns d as floating point microseconds.
func (d Duration) Microseconds() float64 { return float64(d) / 1e3 }

// Scale returns d multiplied by f, rounded to the nanosecond.
func (d Duration) Scale(f float64) Duration {
	return Duration(math.Round(float64(d) * f))
}

// Div returns d divided by n, rounded to the nanosecond.
func (d Duration) Div(n float64) Duration {
	return Duration(math.Round(float64(d) / n))
}

// Ratio returns d / other as a plain number.
func (d Duration) Ratio(other Duration) float64 {
	return float64(d) / float64(other)
}

// Abs returns the absolute value of d.
func (d Duration) Abs() Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Sign returns -1, 0 or +1.
func (d Duration) Sign() int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

// Std converts d to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
