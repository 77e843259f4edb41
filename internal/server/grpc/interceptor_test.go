package grpc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/refgate/internal/logging"
)

type entry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recordingLogger) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{level: level, msg: msg, args: args})
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) { r.add("debug", msg, args) }
func (r *recordingLogger) Info(_ context.Context, msg string, args ...any)  { r.add("info", msg, args) }
func (r *recordingLogger) Warn(_ context.Context, msg string, args ...any)  { r.add("warn", msg, args) }
func (r *recordingLogger) Error(_ context.Context, msg string, args ...any) { r.add("error", msg, args) }
func (r *recordingLogger) With(...any) logging.Logger                      { return r }

func TestInterceptor_LogsSuccessAtDebug(t *testing.T) {
	rl := &recordingLogger{}
	s := &GRPCServer{logger: rl}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	require.Len(t, rl.entries, 1)
	assert.Equal(t, "debug", rl.entries[0].level)
	assert.Contains(t, rl.entries[0].args, "/grpc.health.v1.Health/Check")
	assert.Contains(t, rl.entries[0].args, "OK")
}

func TestInterceptor_LogsFailureAtWarn(t *testing.T) {
	rl := &recordingLogger{}
	s := &GRPCServer{logger: rl}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.NotFound, "unknown service")
	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})

	require.ErrorIs(t, err, want)
	require.Len(t, rl.entries, 1)
	assert.Equal(t, "warn", rl.entries[0].level)
	assert.Contains(t, rl.entries[0].args, "NotFound")
}
