package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// principal is the authenticated caller taken from the access token.
type principal struct {
	UserID   string
	Username string
	Roles    []string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p *principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) *principal {
	p, _ := ctx.Value(principalKey{}).(*principal)
	return p
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticate rejects requests without a valid access token. When
// allowQuery is set the token may also come from the access_token query
// parameter, which browsers need for websocket upgrades. After the handler
// runs the caller's last-active time is refreshed.
func (s *Server) authenticate(allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get(common.AccessTokenQueryName)
			}
			if token == "" {
				writeError(r.Context(), w, s.logger, common.ErrorUnauthorized)
				return
			}
			claims, err := s.tokens.ParseAccessToken(token)
			if err != nil {
				writeError(r.Context(), w, s.logger, err)
				return
			}
			p := &principal{UserID: claims.NameID, Username: claims.UniqueName, Roles: claims.Roles}
			ctx := withPrincipal(r.Context(), p)

			next.ServeHTTP(w, r.WithContext(ctx))

			if err := s.members.Touch(context.WithoutCancel(ctx), p.UserID); err != nil {
				s.logger.Warn(ctx, "update last active", "user", p.Username, "error", err)
			}
		})
	}
}

// authorize checks the caller's roles against the access policy for the
// request path and method.
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r.Context())
		if p == nil {
			writeError(r.Context(), w, s.logger, common.ErrorUnauthorized)
			return
		}
		ok, err := s.enforcer.Allowed(p.Roles, r.URL.Path, r.Method)
		if err != nil {
			writeError(r.Context(), w, s.logger, fmt.Errorf("authorize: %w", err))
			return
		}
		if !ok {
			writeError(r.Context(), w, s.logger, common.ErrorForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.logger.Debug(r.Context(), "http request",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	})
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.AuthorizationHeaderName},
		ExposedHeaders:   []string{common.PaginationHeaderName, "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// rateLimit is a no-op when perMinute is not positive.
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}
