package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailkit/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    []string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "203.0.113.7:52100",
			want:       "203.0.113.7",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "cloudflare wins over forwarded",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.1",
		},
		{
			name:       "first valid forwarded entry",
			headers:    map[string]string{"X-Forwarded-For": "unknown, 198.51.100.2, 10.0.0.3"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.2",
		},
		{
			name:       "invalid header falls through",
			headers:    map[string]string{"CF-Connecting-IP": "not-an-ip", "X-Real-IP": "198.51.100.4"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.4",
		},
		{
			name:       "ipv4 mapped address is unmapped",
			headers:    map[string]string{"X-Real-IP": "::ffff:198.51.100.5"},
			want:       "198.51.100.5",
		},
		{
			name:       "custom headers ignore defaults",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.1", "Fly-Client-IP": "198.51.100.9"},
			remoteAddr: "10.0.0.1:80",
			trusted:    []string{"Fly-Client-IP"},
			want:       "198.51.100.9",
		},
		{
			name:       "nothing valid",
			remoteAddr: "garbage",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.FromRequest(r, tt.trusted...))
		})
	}
}

func TestFromRequest_Nil(t *testing.T) {
	t.Parallel()
	assert.Empty(t, clientip.FromRequest(nil))
}

func TestParse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.0.2.1", clientip.Parse(" 192.0.2.1 "))
	assert.Equal(t, "2001:db8::1", clientip.Parse("[2001:db8::1]"))
	assert.Equal(t, "fe80::1", clientip.Parse("fe80::1%eth0"))
	assert.Empty(t, clientip.Parse("999.1.1.1"))
	assert.Empty(t, clientip.Parse(""))
}
