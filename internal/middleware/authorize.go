package middleware

import (
	"net"
	"net/http"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/avantlehq/core-avantle-ai/internal/handlers"
	"github.com/avantlehq/core-avantle-ai/internal/services"
)

// Authorize runs every request through the decision engine. Allowed requests
// continue with the principal and caller details in their context; denied
// requests get the error envelope and never reach a handler.
func Authorize(engine *authz.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			res := engine.Authorize(ctx, authz.RequestFromHTTP(r))
			if !res.Allowed {
				if ctx.Err() != nil {
					// The client is gone; nobody will read a response.
					return
				}
				denial := res.Denial()
				if denial.HTTPStatus() == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="control-plane"`)
				}
				handlers.WriteError(w, denial.HTTPStatus(), string(denial.Code), denial.Message)
				return
			}

			if res.Principal != nil {
				ctx = authz.ContextWithPrincipal(ctx, res.Principal)
			}
			ctx = services.WithClientInfo(ctx, services.ClientInfo{
				IPAddress: clientIP(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
