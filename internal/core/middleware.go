// Package core assembles the server's interceptor chain. Middleware is
// registered with a numeric order so the resulting chain does not depend on
// the order options were passed in.
package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// middleware is a named interceptor pair (unary + stream). Lower Order
// values run first.
type middleware struct {
	Name   string
	Unary  grpc.UnaryServerInterceptor
	Stream grpc.StreamServerInterceptor
	Order  int
}

// MiddlewareBuilder collects middleware entries and produces sorted interceptor
// slices ready for chaining.
type MiddlewareBuilder struct {
	entries []middleware
}

// Add registers a middleware entry with the given order.
// Either interceptor may be nil if only one direction is needed.
func (b *MiddlewareBuilder) Add(name string, order int, unary grpc.UnaryServerInterceptor, stream grpc.StreamServerInterceptor) {
	b.entries = append(b.entries, middleware{
		Name:   name,
		Unary:  unary,
		Stream: stream,
		Order:  order,
	})
}

func (b *MiddlewareBuilder) sort() {
	slices.SortStableFunc(b.entries, func(a, c middleware) int {
		return cmp.Compare(a.Order, c.Order)
	})
}

// Names returns the registered middleware names in execution order.
func (b *MiddlewareBuilder) Names() []string {
	b.sort()
	names := make([]string, 0, len(b.entries))
	for _, m := range b.entries {
		names = append(names, m.Name)
	}
	return names
}

// Build sorts the collected middleware by Order (stable) and returns the
// separated unary and stream interceptor slices.
func (b *MiddlewareBuilder) Build() ([]grpc.UnaryServerInterceptor, []grpc.StreamServerInterceptor) {
	b.sort()

	var unary []grpc.UnaryServerInterceptor
	var stream []grpc.StreamServerInterceptor
	for _, m := range b.entries {
		if m.Unary != nil {
			unary = append(unary, m.Unary)
		}
		if m.Stream != nil {
			stream = append(stream, m.Stream)
		}
	}
	return unary, stream
}
