package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/breaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScanner struct {
	res   *Result
	err   error
	calls int
}

func (s *stubScanner) Scan(context.Context, []byte) (*Result, error) {
	s.calls++
	return s.res, s.err
}

func TestGuarded_PassesResultThrough(t *testing.T) {
	inner := &stubScanner{res: &Result{Status: StatusVirusDetected, Virus: "Eicar"}}
	g := NewGuarded(inner, breaker.Settings{}, logging.Nop{})

	res, err := g.Scan(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, StatusVirusDetected, res.Status)
}

func TestGuarded_OpensAfterTransportFailures(t *testing.T) {
	inner := &stubScanner{err: errors.New("connection refused")}
	g := NewGuarded(inner, breaker.Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, logging.Nop{})

	for i := 0; i < 2; i++ {
		_, err := g.Scan(context.Background(), nil)
		require.Error(t, err)
	}

	_, err := g.Scan(context.Background(), nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}
