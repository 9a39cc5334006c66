package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/nomnom/internal/storage"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister handles POST /auth/register
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Email and password required")
		case errors.Is(err, ErrEmailTaken):
			writeErrorResponse(w, http.StatusConflict, "email_taken", "Email already exists")
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RegisterResponse{
		UserID: user.ID,
		Email:  user.Email,
	})
}

// HandleLogin handles POST /auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	token, user, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Email and password required")
		case errors.Is(err, ErrInvalidCredentials):
			writeErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{
		Token: token,
		User:  userInfo(user),
	})
}

// HandleMe handles GET /auth/me
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(userInfo(user))
}

func userInfo(user *storage.User) UserInfo {
	return UserInfo{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		FullName: user.FullName,
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
