package handler

import (
	"encoding/json"
	"net/http"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/middleware"
	"github.com/chargelog/chargelog/internal/session"
)

// credentialsRequest is the body of POST /auth/signup and /auth/signin.
type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// sessionResponse is returned by signup and signin: the session identity
// plus the bearer token for subsequent requests.
type sessionResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// SignUp handles POST /auth/signup.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON object with email and password")
		return
	}

	sess, err := s.sessions.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}

	s.respondSession(w, http.StatusCreated, sess)
}

// SignIn handles POST /auth/signin.
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be a JSON object with email and password")
		return
	}

	sess, err := s.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	s.respondSession(w, http.StatusOK, sess)
}

// SignOut handles POST /auth/signout. The token itself stays valid until it
// expires; signing out tears down the server-side tracker state.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	if sess == nil {
		respondError(w, domain.ErrNotAuthenticated)
		return
	}

	if err := s.sessions.SignOut(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	s.trackers.Drop(r.Context(), sess.UserID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondSession(w http.ResponseWriter, status int, sess session.Session) {
	token, err := s.tokens.IssueToken(sess)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, status, sessionResponse{
		Token:       token,
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
	})
}
