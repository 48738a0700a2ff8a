package ratelimit_test

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestPeerKeyExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "strips the port", remoteAddr: "203.0.113.5:51234", want: "203.0.113.5"},
		{name: "handles IPv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "keeps address without port", remoteAddr: "203.0.113.5", want: "203.0.113.5"},
		{name: "empty address is unknown", remoteAddr: "", want: "unknown"},
		{
			name:       "ignores forwarding headers",
			remoteAddr: "10.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7"},
			want:       "10.0.0.1",
		},
	}

	extractor := ratelimit.NewPeerKeyExtractor()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := newMockHumaContext(tt.remoteAddr)
			for k, v := range tt.headers {
				ctx.headers[k] = v
			}

			assert.Equal(t, tt.want, extractor.Key(ctx))
		})
	}
}

func TestForwardedKeyExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "uses first X-Forwarded-For entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			want:    "203.0.113.195",
		},
		{
			name:    "uses single X-Forwarded-For entry",
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.195 "},
			want:    "203.0.113.195",
		},
		{
			name:    "falls back to X-Real-IP",
			headers: map[string]string{"X-Real-IP": "203.0.113.100"},
			want:    "203.0.113.100",
		},
		{
			name:    "skips blank X-Forwarded-For",
			headers: map[string]string{"X-Forwarded-For": " , 1.2.3.4", "X-Real-IP": "203.0.113.100"},
			want:    "203.0.113.100",
		},
		{
			name: "falls back to peer address",
			want: "10.0.0.1",
		},
	}

	extractor := ratelimit.NewForwardedKeyExtractor()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := newMockHumaContext("10.0.0.1:12345")
			for k, v := range tt.headers {
				ctx.headers[k] = v
			}

			assert.Equal(t, tt.want, extractor.Key(ctx))
		})
	}
}

func TestNewKeyExtractor(t *testing.T) {
	ctx := newMockHumaContext("10.0.0.1:12345")
	ctx.headers["X-Forwarded-For"] = "203.0.113.195"

	assert.Equal(t, "10.0.0.1", ratelimit.NewKeyExtractor(false).Key(ctx))
	assert.Equal(t, "203.0.113.195", ratelimit.NewKeyExtractor(true).Key(ctx))
}

func TestKeyFunc(t *testing.T) {
	extractor := ratelimit.KeyFunc(func(_ huma.Context) string { return "fixed" })

	assert.Equal(t, "fixed", extractor.Key(newMockHumaContext("")))
}
