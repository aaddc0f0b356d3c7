package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// userPayload is the client-facing user shape, without the password hash.
type userPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserPayload(u core.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, token, err := s.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Message("user registered successfully").
		Data(map[string]any{"user": toUserPayload(user), "token": token}).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, token, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().
		Message("login successful").
		Data(map[string]any{"user": toUserPayload(user), "token": token}).
		Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	user, err := s.authSvc.Profile(r.Context(), userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().Data(toUserPayload(user)).Write(w)
}

// handleVerify confirms a token is valid; the middleware already did the
// work by the time this runs.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	NewResponse().Data(map[string]any{"valid": true, "userId": userID}).Write(w)
}
