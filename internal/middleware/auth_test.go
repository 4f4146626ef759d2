package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret-test-secret-test-secret"

func tokenFor(t *testing.T, role model.UserRole) string {
	t.Helper()
	user := &model.User{Username: "tester", Role: role}
	user.ID = 7
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func newAuthRouter(roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), RoleMiddleware(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).Username)
	})
	r.GET("/open", TryAuthMiddleware(testSecret), func(c *gin.Context) {
		if util.GetUserFromContext(c) == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, "user")
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter(model.Staff)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"staff allowed", tokenFor(t, model.Staff), http.StatusOK},
		{"admin always allowed", tokenFor(t, model.Admin), http.StatusOK},
		{"unknown role forbidden", tokenFor(t, model.UserRole("guest")), http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
	}
}

func TestTryAuthMiddleware(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	if w.Body.String() != "anonymous" {
		t.Fatalf("body = %q, want anonymous", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open?token="+tokenFor(t, model.Staff), nil))
	if w.Body.String() != "user" {
		t.Fatalf("body = %q, want user", w.Body.String())
	}
}
