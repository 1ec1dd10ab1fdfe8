package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CIDRMiddleware restricts access to clients inside allowlist. An empty allowlist
// admits loopback addresses only. Forwarding headers are honoured only when the
// direct peer falls inside trustedProxies.
func CIDRMiddleware(allowlist, trustedProxies []string) echo.MiddlewareFunc {
	allowed := parseCIDRs(allowlist)
	trusted := parseCIDRs(trustedProxies)
	localhostOnly := len(allowed) == 0

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := net.ParseIP(clientIP(c.Request(), trusted))
			if ip == nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid IP address")
			}

			if localhostOnly {
				if !ip.IsLoopback() {
					return echo.NewHTTPError(http.StatusForbidden, "Access denied: localhost-only")
				}
				return next(c)
			}
			if !containsIP(allowed, ip) {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied: IP not in allowlist")
			}
			return next(c)
		}
	}
}

// parseCIDRs skips malformed entries; configuration validation rejects them earlier.
func parseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP resolves the caller's address. X-Forwarded-For is walked right to left
// and the first untrusted hop wins; X-Real-IP is the fallback.
func clientIP(r *http.Request, trusted []*net.IPNet) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	if len(trusted) == 0 {
		return peer
	}
	if p := net.ParseIP(peer); p == nil || !containsIP(trusted, p) {
		return peer
	}

	if xff := r.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			ip := net.ParseIP(hop)
			if ip == nil {
				continue
			}
			if !containsIP(trusted, ip) {
				return hop
			}
		}
		return strings.TrimSpace(hops[0])
	}

	if xri := r.Header.Get(echo.HeaderXRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}
	return peer
}
