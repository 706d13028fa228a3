package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/datingapp/internal/validation"
	"github.com/go-chi/chi/v5"
)

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	msg, err := s.messages.Send(r.Context(), p.Username, req.RecipientUsername, req.Content)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDto(msg))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	q := r.URL.Query()

	number, err := queryInt(q, "pageNumber")
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	size, err := queryInt(q, "pageSize")
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	page, err := s.messages.List(r.Context(), p.Username, q.Get("container"), number, size)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	setPagination(w, pageHeader(page))
	writeJSON(w, http.StatusOK, toMessageDtos(page.Items))
}

func (s *Server) messageThread(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	msgs, err := s.messages.Thread(r.Context(), p.Username, strings.ToLower(chi.URLParam(r, "username")))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDtos(msgs))
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if err := s.messages.Delete(r.Context(), p.Username, id); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
