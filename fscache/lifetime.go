package fscache

import "time"

// Lifetime resolves to a number of seconds relative to the instant an entry
// is written. A nil Lifetime means DefaultLifetime.
type Lifetime interface {
	Seconds(from time.Time) int64
}

// Duration is a fixed lifetime. Sub-second precision is truncated.
type Duration time.Duration

// DefaultLifetime applies when Set or Touch receive a nil Lifetime.
const DefaultLifetime = Duration(time.Hour)

// Seconds implements Lifetime.
func (d Duration) Seconds(time.Time) int64 {
	return int64(time.Duration(d) / time.Second)
}

// Seconds returns a Lifetime of n seconds. Zero or negative values produce
// entries that are already expired.
func Seconds(n int64) Lifetime {
	return Duration(time.Duration(n) * time.Second)
}

// Interval is a calendar-style lifetime. Years, months and days are added
// with time.AddDate against the write instant, so the resulting number of
// seconds depends on month lengths and leap years.
type Interval struct {
	Years, Months, Days int
	Duration            time.Duration
}

// Seconds implements Lifetime.
func (i Interval) Seconds(from time.Time) int64 {
	to := from.AddDate(i.Years, i.Months, i.Days).Add(i.Duration)
	return to.Unix() - from.Unix()
}

// expiryAt converts a lifetime to the absolute unix timestamp stored in the envelope.
func expiryAt(l Lifetime, now time.Time) int64 {
	if l == nil {
		l = DefaultLifetime
	}
	return now.Unix() + l.Seconds(now)
}

// live reports whether an entry expiring at expiry is still visible at now.
func live(expiry int64, now time.Time) bool {
	return expiry >= now.Unix()
}
