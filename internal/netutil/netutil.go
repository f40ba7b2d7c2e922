package netutil

import (
	"net/http"
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// NormalizeIP accepts a bare IP or an address with a port ("192.0.2.4:1234",
// "[2001:db8::1]:443") and returns the IP without zone. ok is false when no IP
// could be parsed, in which case the trimmed input is returned.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return canonical(ap.Addr())
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return canonical(addr)
	}
	// "[::1]:port" style with a non-numeric port
	if strings.HasPrefix(raw, "[") {
		if end := strings.LastIndex(raw, "]"); end > 0 {
			if addr, err := netip.ParseAddr(raw[1:end]); err == nil {
				return canonical(addr)
			}
		}
	}
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if addr, err := netip.ParseAddr(raw[:idx]); err == nil {
			return canonical(addr)
		}
	}
	return raw, false
}

func canonical(addr netip.Addr) (string, bool) {
	addr = addr.WithZone("")
	if !addr.IsValid() {
		return "", false
	}
	return addr.String(), true
}

// ClientIP resolves the caller address. Forwarding headers are only honoured
// when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip, ok := NormalizeIP(first); ok {
				return ip
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			if ip, ok := NormalizeIP(xr); ok {
				return ip
			}
		}
	}
	if ip, ok := NormalizeIP(r.RemoteAddr); ok {
		return ip
	}
	return r.RemoteAddr
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			return ua[:i]
		}
		n++
	}
	return ua
}
