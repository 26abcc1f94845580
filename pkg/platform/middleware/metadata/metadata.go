package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"phonetrack/pkg/requestcontext"
)

// MaxXFFHeaderLength is the maximum accepted X-Forwarded-For length.
const MaxXFFHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists CIDR prefixes allowed to set X-Forwarded-For.
	// Empty means forwarded headers are never trusted.
	TrustedProxies []netip.Prefix
}

// Middleware extracts client metadata into the request context.
type Middleware struct {
	config Config
}

func NewMiddleware(cfg Config) *Middleware {
	return &Middleware{config: cfg}
}

// Handler stores the client IP, raw User-Agent and a coarse platform label in
// the context for access logs.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")

		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, m.clientIP(r))
		ctx = requestcontext.WithUserAgent(ctx, ua)
		ctx = requestcontext.WithClientPlatform(ctx, Platform(ua))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Platform reduces a User-Agent to "browser/os/form-factor", e.g.
// "chrome/android/mobile". Unknown parts render as "unknown".
func Platform(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	formFactor := "desktop"
	if ua.Mobile() {
		formFactor = "mobile"
	}
	if ua.Bot() {
		formFactor = "bot"
	}
	return orUnknown(browser) + "/" + orUnknown(ua.OS()) + "/" + formFactor
}

func orUnknown(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

func (m *Middleware) clientIP(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" || len(xff) > MaxXFFHeaderLength || !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if _, err := netip.ParseAddr(first); err != nil {
		return remoteIP
	}
	return first
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
