package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrCache/service"
)

// Watcher receives store events from a Watch call.
type Watcher struct {
	stream grpc.ClientStream
}

// Watch subscribes to the named store events, or to all of them when none
// are given. It returns once the server has acknowledged the subscription;
// cancel ctx to end it. Watch calls are not retried.
func (c *Client) Watch(ctx context.Context, events ...string) (*Watcher, error) {
	cs, err := c.conn.NewStream(ctx, &service.ServiceDesc.Streams[0], service.FullMethod("Watch"))
	if err != nil {
		return nil, fmt.Errorf("client: watch: %w", err)
	}
	if err := cs.SendMsg(&service.WatchRequest{Events: events}); err != nil {
		return nil, fmt.Errorf("client: watch: %w", err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("client: watch: %w", err)
	}
	if _, err := cs.Header(); err != nil {
		return nil, fmt.Errorf("client: watch: %w", err)
	}
	return &Watcher{stream: cs}, nil
}

// Recv blocks until the next event arrives or the stream ends.
func (w *Watcher) Recv() (*service.WatchEvent, error) {
	ev := new(service.WatchEvent)
	if err := w.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
