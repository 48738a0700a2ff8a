package ratelimit

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const unknownClient = "unknown"

// KeyExtractor derives the client key a request is counted against.
type KeyExtractor interface {
	Key(ctx huma.Context) string
}

// KeyFunc adapts a function to KeyExtractor.
type KeyFunc func(ctx huma.Context) string

func (f KeyFunc) Key(ctx huma.Context) string { return f(ctx) }

// PeerKeyExtractor keys clients by the host part of the direct network peer.
// Behind a reverse proxy every client shares the proxy's address.
type PeerKeyExtractor struct{}

// NewPeerKeyExtractor creates a key extractor that uses the peer address.
func NewPeerKeyExtractor() *PeerKeyExtractor {
	return &PeerKeyExtractor{}
}

func (PeerKeyExtractor) Key(ctx huma.Context) string {
	return hostOnly(ctx.RemoteAddr())
}

// ForwardedKeyExtractor trusts proxy headers: the first X-Forwarded-For
// entry, then X-Real-IP, then the peer address.
type ForwardedKeyExtractor struct {
	peer PeerKeyExtractor
}

// NewForwardedKeyExtractor creates a proxy-aware key extractor.
func NewForwardedKeyExtractor() *ForwardedKeyExtractor {
	return &ForwardedKeyExtractor{}
}

func (e ForwardedKeyExtractor) Key(ctx huma.Context) string {
	// X-Forwarded-For may contain a chain; the first entry is the original client
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			first = xff[:idx]
		}

		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
		return xri
	}

	return e.peer.Key(ctx)
}

// NewKeyExtractor picks the extractor matching the proxy trust setting.
func NewKeyExtractor(trustProxy bool) KeyExtractor {
	if trustProxy {
		return NewForwardedKeyExtractor()
	}

	return NewPeerKeyExtractor()
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return unknownClient
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
