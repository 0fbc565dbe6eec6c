package middleware

import (
	"net"
	"net/http"

	"medhistory/pkg/utils"
)

// ClientInfo stores the caller's user agent and address in the request context.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}

		ctx := utils.SetClientContext(r.Context(), utils.ClientInfo{
			UserAgent: r.UserAgent(),
			IPAddress: ip,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
