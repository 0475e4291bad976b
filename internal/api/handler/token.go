package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"socialpulse/internal/api/response"
	"socialpulse/internal/auth"
	"socialpulse/internal/store"
)

// NewTokenHandler returns the handler for POST /api/v1/token. Credentials
// are verified against the stored bcrypt hash; the reply carries a bearer
// JWT scoped to the user's client.
func NewTokenHandler(s store.Store, jwt *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Username == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required", nil)
			return
		}

		user, err := s.GetUserByUsername(r.Context(), req.Username)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
			return
		}

		token, err := jwt.Sign(user.Username, user.ClientID, user.Role)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", nil)
			return
		}

		// Update last_login_at async
		go s.UpdateUserLastLogin(context.Background(), user.ID)

		response.JSON(w, map[string]string{"token": token})
	}
}
