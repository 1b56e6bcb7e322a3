package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/fscache"
)

// watchBuffer is the number of events a slow watcher may fall behind
// before further events are dropped for it.
const watchBuffer = 64

var errWatchUnavailable = status.Error(codes.Unimplemented, "watch is not enabled on this server")

// WatchStream is the server side of a Watch call.
type WatchStream interface {
	Send(*WatchEvent) error
	SendHeader(metadata.MD) error
	Context() context.Context
}

type watchServerStream struct {
	grpc.ServerStream
}

func (s *watchServerStream) Send(ev *WatchEvent) error {
	return s.SendMsg(ev)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	req := new(WatchRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(Handler).Watch(req, &watchServerStream{stream})
}

// Hub fans store events out to Watch subscribers. It is an fscache.Observer;
// register it with fscache.WithObserver and hand it to the handler with
// WithHub. Delivery never blocks the store: a subscriber whose buffer is
// full misses events until it catches up.
type Hub struct {
	nowFunc func() time.Time

	mu   sync.Mutex
	subs map[chan WatchEvent]map[fscache.Event]bool
}

// NewHub returns a Hub without subscribers.
func NewHub() *Hub {
	return &Hub{
		nowFunc: time.Now,
		subs:    make(map[chan WatchEvent]map[fscache.Event]bool),
	}
}

// Observe implements fscache.Observer.
func (h *Hub) Observe(ev fscache.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return
	}
	msg := WatchEvent{Event: ev.String(), TimeUnixNano: h.nowFunc().UnixNano()}
	for ch, filter := range h.subs {
		if filter != nil && !filter[ev] {
			continue
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a subscriber for events, or for every event when
// events is empty. The returned cancel func unregisters it and closes the
// channel.
func (h *Hub) Subscribe(events []fscache.Event, buffer int) (<-chan WatchEvent, func()) {
	var filter map[fscache.Event]bool
	if len(events) > 0 {
		filter = make(map[fscache.Event]bool, len(events))
		for _, ev := range events {
			filter[ev] = true
		}
	}
	ch := make(chan WatchEvent, buffer)

	h.mu.Lock()
	h.subs[ch] = filter
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Watch implements Handler. Response headers are sent once the subscription
// is in place, so a client that has read them sees every later event.
func (h *StoreHandler) Watch(req *WatchRequest, stream WatchStream) error {
	if h.hub == nil {
		return errWatchUnavailable
	}
	events, err := parseEvents(req.Events)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ch, cancel := h.hub.Subscribe(events, watchBuffer)
	defer cancel()
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}
	h.log.V(1).Info("watch started", "events", req.Events)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.V(1).Info("watch ended", "reason", ctx.Err().Error())
			return nil
		case ev := <-ch:
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}

func parseEvents(names []string) ([]fscache.Event, error) {
	events := make([]fscache.Event, 0, len(names))
	for _, n := range names {
		ev, ok := fscache.ParseEvent(n)
		if !ok {
			return nil, fmt.Errorf("unknown event %q", n)
		}
		events = append(events, ev)
	}
	return events, nil
}
