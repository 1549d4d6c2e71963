package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
)

func statusCode(err error) int {
	var (
		validationErr *internal.ValidationError
		refreshErr    *internal.RefreshFailedError
		remoteErr     *internal.RemoteAPIError
	)
	switch {
	case errors.As(err, &validationErr), errors.Is(err, auth.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrNotAuthenticated), errors.As(err, &refreshErr):
		return http.StatusUnauthorized
	case errors.Is(err, internal.ErrNotFound),
		errors.Is(err, internal.ErrNotConnected),
		errors.Is(err, internal.ErrInvalidLink):
		return http.StatusNotFound
	case errors.Is(err, internal.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed.", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &internal.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
