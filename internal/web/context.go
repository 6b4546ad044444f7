package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/pricing/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for
// submission logs. RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithClientIP(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
