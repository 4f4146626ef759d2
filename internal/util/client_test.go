package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		xff  string
		want string
	}{
		{"no header", "", "10.0.0.7"},
		{"first of chain", " 203.0.113.9 , 10.0.0.1", "203.0.113.9"},
		{"ipv6", "2001:db8::1", "2001:db8::1"},
		{"garbage", "not-an-ip", "10.0.0.7"},
		{"too long", strings.Repeat("1", 200), "10.0.0.7"},
		{"empty first", ", 203.0.113.9", "10.0.0.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			ctx.Request.RemoteAddr = "10.0.0.7:52100"
			if tc.xff != "" {
				ctx.Request.Header.Set("X-Forwarded-For", tc.xff)
			}
			got := ClientIP(ctx)
			if got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
			if len(got) > 45 {
				t.Fatalf("ClientIP longer than the ip_address column: %q", got)
			}
		})
	}
}
