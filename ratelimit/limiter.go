// Package ratelimit provides token-bucket limiters backed by
// golang.org/x/time/rate that gate cache RPCs, globally or per method.
package ratelimit

import (
	"math"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that decides whether an incoming
// request should be allowed.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps requests per second with the
// given burst size. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 || math.IsInf(rps, 1) {
		limit = rate.Inf
	}
	return &Limiter{lim: rate.NewLimiter(limit, burst)}
}

// Allow reports whether a single request may proceed.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Rule is the serialisable form of a limiter.
type Rule struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Limiter builds the limiter described by r.
func (r Rule) Limiter() *Limiter {
	return NewLimiter(r.RPS, r.Burst)
}

// Limits selects the limiter for a gRPC method. A method listed in Methods
// is gated only by its own limiter; every other method shares Global. A nil
// Global leaves unlisted methods unlimited.
type Limits struct {
	Global  *Limiter
	Methods map[string]*Limiter
}

// For returns the limiter applying to fullMethod, or nil if none does.
func (l *Limits) For(fullMethod string) *Limiter {
	if lim, ok := l.Methods[fullMethod]; ok {
		return lim
	}
	return l.Global
}

// Allow reports whether a call to fullMethod may proceed.
func (l *Limits) Allow(fullMethod string) bool {
	lim := l.For(fullMethod)
	return lim == nil || lim.Allow()
}
