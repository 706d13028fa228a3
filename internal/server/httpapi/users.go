package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const uploadFormField = "file"

func queryInt(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", common.ErrorValidation, name)
	}
	return n, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", common.ErrorValidation, name)
	}
	return id, nil
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	q := r.URL.Query()

	var (
		query services.MemberQuery
		err   error
	)
	for name, dst := range map[string]*int{
		"pageNumber": &query.PageNumber,
		"pageSize":   &query.PageSize,
		"minAge":     &query.MinAge,
		"maxAge":     &query.MaxAge,
	} {
		if *dst, err = queryInt(q, name); err != nil {
			writeError(r.Context(), w, s.logger, err)
			return
		}
	}
	query.Gender = strings.ToLower(q.Get("gender"))
	query.OrderBy = q.Get("orderBy")

	page, err := s.members.List(r.Context(), p.Username, query)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	now := s.now()
	out := make([]memberDto, 0, len(page.Items))
	for _, u := range page.Items {
		out = append(out, toMemberDto(u, now))
	}
	setPagination(w, pageHeader(page))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	user, err := s.members.Get(r.Context(), username)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDto(user, s.now()))
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req memberUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	err := s.members.Update(r.Context(), p.UserID, models.ProfileUpdate{
		Introduction: req.Introduction,
		LookingFor:   req.LookingFor,
		Interests:    req.Interests,
		City:         req.City,
		Country:      req.Country,
	})
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readUpload returns nil when the form carries no file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*services.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, tooLarge.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errBadRequestBody
	}

	f, hdr, err := r.FormFile(uploadFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errBadRequestBody
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &services.Upload{Filename: hdr.Filename, Data: data}, nil
}

func (s *Server) addPhoto(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	upload, err := s.readUpload(w, r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	photo, err := s.photos.AddPhoto(r.Context(), p.UserID, upload)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	w.Header().Set("Location", "/api/users/"+url.PathEscape(p.Username))
	writeJSON(w, http.StatusCreated, toPhotoDto(photo))
}

func (s *Server) setMainPhoto(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	id, err := pathID(r, "photoId")
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := s.photos.SetMainPhoto(r.Context(), p.UserID, id); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	id, err := pathID(r, "photoId")
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := s.photos.DeletePhoto(r.Context(), p.UserID, id); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
