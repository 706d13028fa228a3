package scanner

import (
	"context"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/breaker"
	"github.com/dmitrijs2005/datingapp/internal/server/metrics"
	"github.com/sony/gobreaker/v2"
)

// Guarded wraps a Scanner with a circuit breaker and result metrics. While
// the breaker is open Scan fails fast with gobreaker.ErrOpenState.
type Guarded struct {
	inner  Scanner
	cb     *gobreaker.CircuitBreaker[*Result]
	logger logging.Logger
}

func NewGuarded(inner Scanner, s breaker.Settings, logger logging.Logger) *Guarded {
	return &Guarded{
		inner:  inner,
		cb:     breaker.New[*Result]("clamav", s, logger),
		logger: logger.With("module", "scanner"),
	}
}

func (g *Guarded) Scan(ctx context.Context, data []byte) (*Result, error) {
	res, err := g.cb.Execute(func() (*Result, error) {
		return g.inner.Scan(ctx, data)
	})
	if err != nil {
		metrics.ScanResultsTotal.WithLabelValues("transport-error").Inc()
		return nil, err
	}

	metrics.ScanResultsTotal.WithLabelValues(string(res.Status)).Inc()
	if !res.Clean() {
		g.logger.Warn(ctx, "scan rejected content", "status", res.Status, "virus", res.Virus, "reply", res.Raw)
	}
	return res, nil
}
