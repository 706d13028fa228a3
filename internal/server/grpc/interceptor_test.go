package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	logging.Nop
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	rec := &recordingLogger{}
	s := NewHealthServer("", rec, nil, time.Minute)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(rec.msgs) != 1 || rec.msgs[0] != "grpc call" {
		t.Fatalf("logged %v", rec.msgs)
	}
	if rec.args[0][1] != info.FullMethod || rec.args[0][3] != "OK" {
		t.Fatalf("unexpected log args %v", rec.args[0])
	}
}

func TestLoggingInterceptor_KeepsError(t *testing.T) {
	rec := &recordingLogger{}
	s := NewHealthServer("", rec, nil, time.Minute)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", status.Code(err))
	}
	if rec.args[0][3] != "NotFound" {
		t.Fatalf("logged code %v", rec.args[0][3])
	}
}
