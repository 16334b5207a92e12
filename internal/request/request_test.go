package request

import (
	"context"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/benvon/authgate/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1"},
		{"remote addr ipv6", nil, "[::1]:8080", "::1"},
		{"remote addr without port", nil, "10.0.0.1", "10.0.0.1"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestTrustedClientIP(t *testing.T) {
	t.Parallel()
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name    string
		trusted []netip.Prefix
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"no proxies ignores xff", nil, map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7:4000", "203.0.113.7"},
		{"no proxies ignores xri", nil, map[string]string{"X-Real-IP": "9.9.9.9"}, "203.0.113.7:4000", "203.0.113.7"},
		{"untrusted peer ignores xff", proxies, map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7:4000", "203.0.113.7"},
		{"trusted peer uses xff", proxies, map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.1.1.1:4000", "1.2.3.4"},
		{"rightmost untrusted hop", proxies, map[string]string{"X-Forwarded-For": "6.6.6.6, 1.2.3.4, 10.2.2.2"}, "10.1.1.1:4000", "1.2.3.4"},
		{"all hops trusted", proxies, map[string]string{"X-Forwarded-For": "10.3.3.3, 10.2.2.2"}, "10.1.1.1:4000", "10.3.3.3"},
		{"trusted peer uses xri", proxies, map[string]string{"X-Real-IP": "9.9.9.9"}, "10.1.1.1:4000", "9.9.9.9"},
		{"trusted peer without headers", proxies, nil, "10.1.1.1:4000", "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			r.RemoteAddr = tt.remote
			if got := TrustedClientIP(r, tt.trusted); got != tt.wantIP {
				t.Errorf("TrustedClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("IdentityFromContext(empty) = %+v, want nil", got)
	}

	id := &models.VerifiedIdentity{Email: "a@x.com", Provider: models.ProviderPassword}
	ctx := WithIdentity(context.Background(), id)
	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext() = %+v, want %+v", got, id)
	}

	wrong := context.WithValue(context.Background(), identityContextKey, "not an identity")
	if got := IdentityFromContext(wrong); got != nil {
		t.Errorf("IdentityFromContext(wrong type) = %+v, want nil", got)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID(empty) = %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID() = %q, want req-1", got)
	}
}
