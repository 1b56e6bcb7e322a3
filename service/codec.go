package service

import (
	"fmt"

	"github.com/goccy/go-json"
	grpcEncoding "google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // ensure default proto codec is registered first
	"google.golang.org/protobuf/proto"
)

func init() {
	// Replace the default proto codec with a thin wrapper that JSON-encodes
	// cache messages and delegates all other (protobuf) messages to proto.
	grpcEncoding.RegisterCodec(cacheCodec{})
}

// cacheCodec handles the rawr.Cache messages via JSON and every other type
// via proto.Marshal/Unmarshal.
type cacheCodec struct{}

func (cacheCodec) Name() string { return "proto" }

func (cacheCodec) Marshal(v any) ([]byte, error) {
	if _, ok := v.(cacheMsg); ok {
		return json.Marshal(v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("cache codec: unsupported message type %T", v)
}

func (cacheCodec) Unmarshal(data []byte, v any) error {
	if _, ok := v.(cacheMsg); ok {
		return json.Unmarshal(data, v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("cache codec: unsupported message type %T", v)
}
