package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"busbooking/internal/auth"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionIssuesAndReusesID(t *testing.T) {
	r := gin.New()
	r.Use(Session(3600))
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetSessionID(c)
		if auth.SessionIDFromContext(c.Request.Context()) != seen {
			t.Errorf("session id missing from request context")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || w.Header().Get(SessionHeader) != seen {
		t.Fatalf("expected issued session id, got %q", seen)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Fatalf("expected sid cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "client-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen != "client-42" {
		t.Fatalf("header session id not honored, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-7"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen != "cookie-7" {
		t.Fatalf("cookie session id not honored, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "bad id;")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen == "bad id;" {
		t.Fatalf("invalid session id accepted")
	}
}

func TestBearerToken(t *testing.T) {
	r := gin.New()
	r.Use(BearerToken())
	var tok string
	r.GET("/", func(c *gin.Context) {
		tok = auth.TokenFromContext(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if tok != "abc.def" {
		t.Fatalf("token not propagated, got %q", tok)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	if tok != "from-cookie" {
		t.Fatalf("cookie token not propagated, got %q", tok)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if tok != "" {
		t.Fatalf("expected no token, got %q", tok)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() == "" || w.Header().Get("X-Request-ID") != w.Body.String() {
		t.Fatalf("request id not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "given" {
		t.Fatalf("request id header not honored")
	}
}
