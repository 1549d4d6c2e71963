package web

import (
	"net/http"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
)

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (s *Server) getGoogleToken(w http.ResponseWriter, r *http.Request) {
	acc, err := s.Tokens.Stored(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if acc.AccessToken == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no access token found in connected account"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  acc.AccessToken,
		RefreshToken: acc.RefreshToken,
		ExpiresAt:    acc.ExpiresAt,
	})
}

func (s *Server) refreshGoogleToken(w http.ResponseWriter, r *http.Request) {
	acc, err := s.Tokens.Fresh(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: acc.AccessToken,
		ExpiresAt:   acc.ExpiresAt,
	})
}

func (s *Server) startGoogle(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.Google.Start(w, r, auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": authURL})
}

func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	acc, err := s.Google.Callback(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Google account connected.", "user_id", acc.UserID)
	http.Redirect(w, r, s.baseURL+"/dashboard?connected="+internal.GoogleProvider, http.StatusFound)
}
