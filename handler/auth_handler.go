package handler

import (
	"encoding/json"
	"errors"
	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

// MessageResponse is the body for acknowledgment-only responses.
type MessageResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// AuthResponse is the body returned by login and refresh.
type AuthResponse struct {
	Message      string `json:"message"`
	StatusCode   int    `json:"statusCode"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "Credentials"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  common.AppError
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	if r.Method != http.MethodPost {
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}

	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	logger.Log.WithField("email", req.Email).Info("Register request received")

	if err := h.service.Register(req); err != nil {
		if errors.Is(err, service.ErrDuplicateCredential) {
			// Generic message so the response does not reveal whether the
			// email is taken.
			return common.NewAppError(http.StatusBadRequest, "Unable to process registration request", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not register user", err)
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		Message:    "User registered successfully",
		StatusCode: http.StatusCreated,
	})
	return nil
}

// Login godoc
// @Summary      Authenticate and receive a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Credentials"
// @Success      200  {object}  AuthResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	if r.Method != http.MethodPost {
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}

	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.service.Login(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not process login", err)
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:      "Login successful",
		StatusCode:   http.StatusOK,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "Refresh token"
// @Success      200  {object}  AuthResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	if r.Method != http.MethodPost {
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}

	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not refresh token", err)
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:      "Token refreshed successfully",
		StatusCode:   http.StatusOK,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// Logout godoc
// @Summary      Revoke all refresh tokens of the caller
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	if r.Method != http.MethodPost {
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.service.Logout(userID); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not log out", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Profile godoc
// @Summary      Get the authenticated user's profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  model.SanitizedUser
// @Failure      401  {object}  common.AppError
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) *common.AppError {
	switch r.Method {
	case http.MethodGet:
		return h.getProfile(w, r)
	case http.MethodDelete:
		return h.deactivateProfile(w, r)
	default:
		return common.NewAppError(http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (h *AuthHandler) getProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := r.Context().Value(UserKey).(*model.SanitizedUser)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user in token", nil)
	}

	writeJSON(w, http.StatusOK, user)
	return nil
}

func (h *AuthHandler) deactivateProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	logger.Log.WithField("user_id", userID).Info("Account deactivation request received")

	if err := h.service.DeactivateUser(userID); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not deactivate account", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
