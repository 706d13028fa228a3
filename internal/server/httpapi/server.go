// Package httpapi exposes the account, member, photo, message and admin
// operations over HTTP, plus the notification websocket, health and
// metrics endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/auth"
	"github.com/dmitrijs2005/datingapp/internal/server/authz"
	"github.com/dmitrijs2005/datingapp/internal/server/config"
	"github.com/dmitrijs2005/datingapp/internal/server/hub"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps lists what the router needs. DB may be nil for the in-memory store.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	Tokens   *auth.TokenService
	Accounts *services.AccountService
	Members  *services.MemberService
	Photos   *services.PhotoService
	Messages *services.MessageService
	Admin    *services.AdminService
	Enforcer *authz.Enforcer
	Hub      *hub.Hub
	DB       Pinger
}

type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	tokens   *auth.TokenService
	accounts *services.AccountService
	members  *services.MemberService
	photos   *services.PhotoService
	messages *services.MessageService
	admin    *services.AdminService
	enforcer *authz.Enforcer
	hub      *hub.Hub
	db       Pinger
	now      func() time.Time
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:      d.Config,
		logger:   d.Logger.With("module", "httpapi"),
		tokens:   d.Tokens,
		accounts: d.Accounts,
		members:  d.Members,
		photos:   d.Photos,
		messages: d.Messages,
		admin:    d.Admin,
		enforcer: d.Enforcer,
		hub:      d.Hub,
		db:       d.DB,
		now:      time.Now,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.instrument)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.cfg.CORSOrigins))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitPerMinute))
		r.Get("/api/health", s.health)

		r.Route("/api/account", func(r chi.Router) {
			r.Use(rateLimit(s.cfg.LoginRateLimitPerMinute))
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/refreshToken", s.refreshToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate(false))

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", s.listMembers)
				r.Put("/", s.updateMember)
				r.Post("/add-photo", s.addPhoto)
				r.Put("/set-main-photo/{photoId}", s.setMainPhoto)
				r.Delete("/delete-photo/{photoId}", s.deletePhoto)
				r.Get("/{username}", s.getMember)
			})

			r.Route("/api/messages", func(r chi.Router) {
				r.Post("/", s.createMessage)
				r.Get("/", s.listMessages)
				r.Get("/thread/{username}", s.messageThread)
				r.Delete("/{id}", s.deleteMessage)
			})

			r.Route("/api/admin", func(r chi.Router) {
				r.Use(s.authorize)
				r.Get("/users-with-roles", s.usersWithRoles)
				r.Post("/edit-roles/{username}", s.editRoles)
				r.Get("/photos-to-moderate", s.photosToModerate)
			})
		})

		r.With(s.authenticate(true)).Get("/hubs/notifications", s.notifications)
	})

	return r
}
