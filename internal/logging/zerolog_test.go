package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_WritesFieldsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(&buf, slog.LevelInfo)
	ctx := context.Background()

	log.Debug(ctx, "hidden", "a", 1)
	log.Info(ctx, "shown", "username", "alice")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(&buf, slog.LevelDebug).With("module", "photos")

	log.Warn(context.Background(), "scan failed", "status", "unknown")

	out := buf.String()
	assert.Contains(t, out, `"module":"photos"`)
	assert.Contains(t, out, `"status":"unknown"`)
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("", "info", &buf)
	require.NoError(t, err)
	l.Info(context.Background(), "from slog")
	assert.True(t, strings.Contains(buf.String(), `"msg":"from slog"`))

	buf.Reset()
	l, err = New(BackendZerolog, "warn", &buf)
	require.NoError(t, err)
	l.Info(context.Background(), "dropped")
	l.Error(context.Background(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	_, err = New("logrus", "info", &buf)
	assert.Error(t, err)

	_, err = New(BackendSlog, "loud", &buf)
	assert.Error(t, err)
}
