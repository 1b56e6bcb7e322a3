package interceptors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrCache/contextx"
)

func TestLoggingUnary_LogsMethodCodeAndRequestID(t *testing.T) {
	var lines []string
	log := funcr.New(func(_, args string) { lines = append(lines, args) }, funcr.Options{Verbosity: 1})

	ic := LoggingUnary(log)
	ctx := contextx.WithRequestID(t.Context(), "rid-1")
	_, err := ic(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/rawr.Cache/Get"}, okHandler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	for _, want := range []string{"/rawr.Cache/Get", `"code"="OK"`, "rid-1"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %q missing %q", lines[0], want)
		}
	}
}

func TestLoggingUnary_SuccessIsQuietByDefault(t *testing.T) {
	var lines []string
	log := funcr.New(func(_, args string) { lines = append(lines, args) }, funcr.Options{})

	_, _ = LoggingUnary(log)(t.Context(), nil, &grpc.UnaryServerInfo{FullMethod: "/rawr.Cache/Get"}, okHandler)
	if len(lines) != 0 {
		t.Fatalf("expected no output at V(0), got %v", lines)
	}
}

func TestLoggingUnary_ErrorsAreLogged(t *testing.T) {
	var lines []string
	log := funcr.New(func(_, args string) { lines = append(lines, args) }, funcr.Options{})

	failing := func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Internal, "boom")
	}
	_, err := LoggingUnary(log)(t.Context(), nil, &grpc.UnaryServerInfo{FullMethod: "/rawr.Cache/Set"}, failing)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected the handler error to pass through, got %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "boom") {
		t.Fatalf("expected an error line mentioning boom, got %v", lines)
	}

	lines = nil
	plain := func(context.Context, any) (any, error) { return nil, errors.New("plain") }
	_, _ = LoggingUnary(log)(t.Context(), nil, &grpc.UnaryServerInfo{FullMethod: "/rawr.Cache/Set"}, plain)
	if len(lines) != 1 || !strings.Contains(lines[0], `"code"="Unknown"`) {
		t.Fatalf("expected Unknown code for a non-status error, got %v", lines)
	}
}
