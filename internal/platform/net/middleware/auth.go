package middleware

import (
	"net/http"

	pnet "herald/internal/platform/net"
)

// AuthPort is the seam the operator API implements to authorize admin requests
type AuthPort interface {
	// Authorize inspects the request credentials and returns an error when denied
	Authorize(r *http.Request) error
}

// Auth is a no-op until wired. It uses the port when provided
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := p.Authorize(r); err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
