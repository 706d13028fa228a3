package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) usersWithRoles(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.UsersWithRoles(r.Context())
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	out := make([]userWithRolesDto, 0, len(users))
	for _, u := range users {
		out = append(out, userWithRolesDto{ID: u.ID, Username: u.UserName, Roles: u.Roles})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) editRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.admin.EditRoles(r.Context(), chi.URLParam(r, "username"), strings.Split(r.URL.Query().Get("roles"), ","))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// photosToModerate is a placeholder until photo approval exists.
func (s *Server) photosToModerate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "Admins or moderators can see this")
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	s.hub.ServeWS(w, r, p.Username)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
