package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/breaker"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/sony/gobreaker/v2"
)

// Guarded puts a circuit breaker in front of an ImageStorage. Errors reported
// by the service itself (*Error) do not count against the breaker.
type Guarded struct {
	inner ImageStorage
	cb    *gobreaker.CircuitBreaker[any]
}

func NewGuarded(inner ImageStorage, s breaker.Settings, logger logging.Logger) *Guarded {
	return &Guarded{inner: inner, cb: breaker.New[any]("image-storage", s, logger)}
}

// serviceError smuggles a *Error past the breaker's failure accounting.
type serviceError struct{ err error }

func (g *Guarded) run(fn func() (any, error)) (any, error) {
	v, err := g.cb.Execute(func() (any, error) {
		v, err := fn()
		var se *Error
		if errors.As(err, &se) {
			return serviceError{err: err}, nil
		}
		return v, err
	})
	if err != nil {
		return nil, err
	}
	if se, ok := v.(serviceError); ok {
		return nil, se.err
	}
	return v, nil
}

func (g *Guarded) Upload(ctx context.Context, owner, name string, data []byte) (*UploadResult, error) {
	v, err := g.run(func() (any, error) { return g.inner.Upload(ctx, owner, name, data) })
	if err != nil {
		return nil, err
	}
	return v.(*UploadResult), nil
}

func (g *Guarded) Delete(ctx context.Context, publicID string) error {
	_, err := g.run(func() (any, error) { return nil, g.inner.Delete(ctx, publicID) })
	return err
}

func (g *Guarded) Fetch(ctx context.Context, photo *models.Photo) ([]byte, error) {
	v, err := g.run(func() (any, error) { return g.inner.Fetch(ctx, photo) })
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
