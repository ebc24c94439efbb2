package handlers

import (
	"net/http"

	"github.com/authgate/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// SecretHandler serves the protected placeholder resource.
type SecretHandler struct {
	secretService *services.SecretService
}

func NewSecretHandler(secretService *services.SecretService) *SecretHandler {
	return &SecretHandler{secretService: secretService}
}

// SecretRouter mounts the protected resource behind authMiddleware.
func SecretRouter(r chi.Router, secretService *services.SecretService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSecretHandler(secretService)

	r.With(authMiddleware).Get("/", handler.GetSecret)
}

func (h *SecretHandler) GetSecret(w http.ResponseWriter, r *http.Request) {
	msg, err := h.secretService.Get(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SecretResponse{Success: true, Secret: msg.Secret})
}

type SecretResponse struct {
	Success bool   `json:"success"`
	Secret  string `json:"secret"`
}
