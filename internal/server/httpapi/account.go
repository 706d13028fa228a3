package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
	"github.com/dmitrijs2005/datingapp/internal/validation"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: dateOfBirth must be a date", common.ErrorValidation)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	session, err := s.accounts.Register(r.Context(), services.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		KnownAs:     req.KnownAs,
		Gender:      req.Gender,
		DateOfBirth: dob,
		City:        req.City,
		Country:     req.Country,
	})
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDto(session))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	session, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDto(session))
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	session, err := s.accounts.Refresh(r.Context(), req.Token, req.RefreshToken)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDto(session))
}
