package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authgate/apiserver/internal/services"
	"github.com/authgate/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

const kindInternal = "internal"

// ErrorResponse is the body of transport-level rejections.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FailureResponse is the body of a failed auth operation. Response holds a
// message string or an ErrorDetail.
type FailureResponse struct {
	Success  bool `json:"success"`
	Response any  `json:"response"`
}

// ErrorDetail is the structured form of conflict and availability failures.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func withUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// UserFromContext returns the user admitted by the token gate.
func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeFailure converts a service error into {success:false, response:...}.
func writeFailure(w http.ResponseWriter, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		writeJSON(w, http.StatusInternalServerError, FailureResponse{
			Response: ErrorDetail{Kind: kindInternal, Message: "internal error"},
		})
		return
	}

	switch svcErr.Kind {
	case services.KindValidation, services.KindAuthentication:
		writeJSON(w, http.StatusBadRequest, FailureResponse{Response: svcErr.Message})
	case services.KindUnauthorized:
		writeJSON(w, http.StatusUnauthorized, FailureResponse{Response: svcErr.Message})
	case services.KindConflict:
		writeJSON(w, http.StatusConflict, FailureResponse{
			Response: ErrorDetail{Kind: string(svcErr.Kind), Message: svcErr.Message},
		})
	case services.KindUnavailable:
		writeJSON(w, http.StatusServiceUnavailable, FailureResponse{
			Response: ErrorDetail{Kind: string(svcErr.Kind), Message: svcErr.Message},
		})
	default:
		writeJSON(w, http.StatusInternalServerError, FailureResponse{
			Response: ErrorDetail{Kind: kindInternal, Message: "internal error"},
		})
	}
}
