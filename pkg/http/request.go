package http

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ExtractClientIP returns the client address for r. Forwarding headers are
// honoured only when the immediate peer is inside a trusted proxy range, so a
// direct client cannot spoof its address.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := remoteHost(r)
	if config == nil || !inAnyPrefix(peer, config.TrustedProxies) {
		return peer
	}

	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return peer
}

func remoteHost(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func inAnyPrefix(ip string, cidrs []string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			continue
		}
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// RequestInfo is the ambient request context attached to security events
type RequestInfo struct {
	URL            string
	IPAddress      string
	UserAgent      string
	Referrer       string
	AcceptLanguage string
}

type requestInfoKey struct{}

// NewRequestInfo captures the fields of r used for event enrichment
func NewRequestInfo(r *http.Request, config *IPConfig) RequestInfo {
	return RequestInfo{
		URL:            r.URL.RequestURI(),
		IPAddress:      ExtractClientIP(r, config),
		UserAgent:      r.UserAgent(),
		Referrer:       r.Referer(),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}
}

// WithRequestInfo returns a copy of ctx carrying info
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the RequestInfo stored in ctx, if any
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
