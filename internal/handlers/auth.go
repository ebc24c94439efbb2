package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/authgate/apiserver/internal/services"
	"github.com/authgate/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const msgInvalidRequest = "invalid request"

// AuthHandler provides the registration and login endpoints.
type AuthHandler struct {
	authService *services.AuthService
	log         logrus.FieldLogger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, log logrus.FieldLogger) {
	handler := NewAuthHandler(authService, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// RequireToken admits requests whose Authorization header carries a known
// access token and stores the owner in the request context.
func RequireToken(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authService.Verify(r.Context(), accessToken(r))
			if err != nil {
				writeFailure(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// Register creates a user and returns its access token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, FailureResponse{Response: msgInvalidRequest})
		return
	}

	user, err := h.authService.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.log.WithField("kind", services.KindOf(err)).Info("registration rejected")
		writeFailure(w, err)
		return
	}

	h.log.WithField("user_id", user.ID).Info("user registered")
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Success: true,
		Response: RegisteredUser{
			Username:    user.Username,
			Email:       user.Email,
			AccessToken: user.AccessToken.Value(),
			UserID:      user.ID,
		},
	})
}

// Login verifies credentials and returns the user's access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, FailureResponse{Response: msgInvalidRequest})
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		Username:    user.Username,
		Email:       user.Email,
		AccessToken: user.AccessToken.Value(),
		UserID:      user.ID,
	})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisteredUser struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

type RegisterResponse struct {
	Success  bool           `json:"success"`
	Response RegisteredUser `json:"response"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

// accessToken reads the raw header value, accepting an optional Bearer scheme.
func accessToken(r *http.Request) types.AccessToken {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, found := strings.Cut(auth, " "); found && strings.EqualFold(scheme, "Bearer") {
		auth = strings.TrimSpace(token)
	}
	return types.AccessToken(auth)
}
