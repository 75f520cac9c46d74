package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/heartmarshall/examwatch/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (int64, error)
}

// Auth resolves a bearer access token into a user ID on the request context.
// Requests without a token pass through anonymously; invalid tokens get 401.
func Auth(validator tokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"detail": "Given token not valid for any token type",
				})
				return
			}
			if h, ok := r.Context().Value(userHolderKey{}).(*userHolder); ok {
				h.id, h.set = userID, true
			}
			ctx := ctxutil.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type userHolderKey struct{}

// userHolder lets Logger see the user resolved further down the chain.
type userHolder struct {
	id  int64
	set bool
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey{}, h)
}
