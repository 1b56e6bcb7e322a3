// Package client is a Go client for the rawr.Cache gRPC service. Values are
// JSON-encoded on the way in and decoded into caller-supplied pointers on
// the way out; transient transport failures are retried with back-off.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Keksclan/goRawrCache/retry"
	"github.com/Keksclan/goRawrCache/service"
)

// Option configures a Client.
type Option func(*Client)

// WithRetry replaces the default retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger logs retried calls at V(1).
func WithLogger(l logr.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to a rawr.Cache server.
type Client struct {
	conn  grpc.ClientConnInterface
	retry retry.Config
	log   logr.Logger
}

// New wraps an existing connection.
func New(conn grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{
		conn:  conn,
		retry: retry.DefaultConfig(),
		log:   logr.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		log := c.log
		c.retry.OnRetry = func(attempt int, err error) {
			log.V(1).Info("retrying cache call", "attempt", attempt+1, "error", err.Error())
		}
	}
	return c
}

// Dial opens a plaintext connection to target and wraps it. The returned
// close function releases the connection.
func Dial(target string, opts ...Option) (*Client, func() error, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("client: dial %s: %w", target, err)
	}
	return New(conn, opts...), conn.Close, nil
}

// Set stores value under key with the server's default lifetime.
func (c *Client) Set(ctx context.Context, key string, value any) (bool, error) {
	return c.set(ctx, key, value, nil)
}

// SetTTL stores value under key for ttl, truncated to whole seconds.
func (c *Client) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.set(ctx, key, value, seconds(ttl))
}

func (c *Client) set(ctx context.Context, key string, value any, ttl *int64) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("client: encode %q: %w", key, err)
	}
	resp, err := call[service.Result](ctx, c, "Set", &service.SetRequest{Key: key, Value: raw, TTLSeconds: ttl})
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

// Get decodes the live value under key into dst and reports whether one
// was found. dst is left untouched on a miss.
func (c *Client) Get(ctx context.Context, key string, dst any) (bool, error) {
	resp, err := call[service.GetResponse](ctx, c, "Get", &service.GetRequest{Key: key})
	if err != nil || !resp.Found {
		return false, err
	}
	if err := json.Unmarshal(resp.Value, dst); err != nil {
		return false, fmt.Errorf("client: decode %q: %w", key, err)
	}
	return true, nil
}

// Has reports whether key holds a live, non-empty value.
func (c *Client) Has(ctx context.Context, key string) (bool, error) {
	return c.result(ctx, "Has", &service.KeyRequest{Key: key})
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	return c.result(ctx, "Delete", &service.KeyRequest{Key: key})
}

// Touch gives a live entry a fresh lifetime of ttl.
func (c *Client) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.result(ctx, "Touch", &service.TouchRequest{Key: key, TTLSeconds: seconds(ttl)})
}

// Clear removes every entry.
func (c *Client) Clear(ctx context.Context) (bool, error) {
	return c.result(ctx, "Clear", &service.Empty{})
}

// DeleteByPattern removes entries whose key matches the glob pattern.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) (bool, error) {
	return c.result(ctx, "DeleteByPattern", &service.PatternRequest{Pattern: pattern})
}

// GetMultiple returns the raw JSON value for each key. Keys without a live
// value map to def encoded as JSON.
func (c *Client) GetMultiple(ctx context.Context, keys []string, def any) (map[string]json.RawMessage, error) {
	rawDef, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("client: encode default: %w", err)
	}
	resp, err := call[service.ValuesResponse](ctx, c, "GetMultiple", &service.KeysRequest{Keys: keys, Default: rawDef})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SetMultiple stores every pair for ttl and reports whether any write
// succeeded.
func (c *Client) SetMultiple(ctx context.Context, values map[string]any, ttl time.Duration) (bool, error) {
	raw := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return false, fmt.Errorf("client: encode %q: %w", k, err)
		}
		raw[k] = b
	}
	return c.result(ctx, "SetMultiple", &service.SetMultipleRequest{Values: raw, TTLSeconds: seconds(ttl)})
}

// DeleteMultiple removes every key and reports whether any removal
// succeeded.
func (c *Client) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	return c.result(ctx, "DeleteMultiple", &service.KeysRequest{Keys: keys})
}

// All returns the server store's shadow cache.
func (c *Client) All(ctx context.Context) (map[string][]byte, error) {
	resp, err := call[service.AllResponse](ctx, c, "All", &service.Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Ping checks the server is reachable and returns its response.
func (c *Client) Ping(ctx context.Context, msg string) (*service.PingResponse, error) {
	return call[service.PingResponse](ctx, c, "Ping", &service.PingRequest{Message: msg})
}

func (c *Client) result(ctx context.Context, method string, req any) (bool, error) {
	resp, err := call[service.Result](ctx, c, method, req)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func call[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (*Resp, error) {
		resp := new(Resp)
		if err := c.conn.Invoke(ctx, service.FullMethod(method), req, resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func seconds(d time.Duration) *int64 {
	n := int64(d / time.Second)
	return &n
}
