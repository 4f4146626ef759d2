package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session("sessionid", time.Hour, false))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, util.GetSessionKey(c))
	})
	return r
}

func TestSessionIssuesKeyWhenMissing(t *testing.T) {
	r := newSessionRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Body.Len() != 36 {
		t.Fatalf("session key = %q, want a uuid", w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != w.Body.String() {
		t.Fatalf("cookie = %v, want sessionid=%s", cookies, w.Body.String())
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
}

func TestSessionKeepsValidKey(t *testing.T) {
	r := newSessionRouter()
	const key = "0b0f1d9e-7a51-4a7e-9d55-3c1f2a0a8f11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: key})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != key {
		t.Fatalf("session key = %q, want %q", w.Body.String(), key)
	}
}

func TestSessionReplacesForgedKey(t *testing.T) {
	r := newSessionRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "../../etc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() == "../../etc" || w.Body.Len() != 36 {
		t.Fatalf("session key = %q, want a fresh uuid", w.Body.String())
	}
}
