package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

type KeyFunc func(r *http.Request) string

// ProxyMatcher decide se o X-Forwarded-For de um peer é confiável.
// infra.TrustedProxies implementa.
type ProxyMatcher interface {
	Contains(ip string) bool
}

// DefaultKeyFunc usa o primeiro IP do X-Forwarded-For quando o peer é
// confiável (trusted nil confia em todos), senão o host do RemoteAddr,
// senão "unknown".
func DefaultKeyFunc(trusted ProxyMatcher) KeyFunc {
	return func(r *http.Request) string {
		socket := remoteHost(r.RemoteAddr)

		if trusted == nil || trusted.Contains(socket) {
			if ip := firstForwarded(r.Header.Get("X-Forwarded-For")); ip != "" {
				return ip
			}
		}

		if socket != "" {
			return socket
		}
		return "unknown"
	}
}

// firstForwarded pega o primeiro item do X-Forwarded-For (cliente original).
func firstForwarded(xff string) string {
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

func remoteHost(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	host, _, err := net.SplitHostPort(remoteAddr)
	if err == nil && host != "" {
		return host
	}
	return remoteAddr
}
