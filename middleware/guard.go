package middleware

import (
	"context"
	"net/http"
	"strings"

	auth "github.com/krishshahi/homeaze-auth"
)

type authResultContextKey struct{}

func AuthResultFromContext(ctx context.Context) (*auth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*auth.AuthResult)
	return res, ok
}

func Guard(engine *auth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithClientIP(r.Context(), clientIP(r))
			ctx = auth.WithUserAgent(ctx, r.UserAgent())

			res, err := engine.AuthenticateRequest(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}
