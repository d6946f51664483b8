package middleware

import (
	"net/http"
	"strings"

	"busbooking/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"
	sessionIDKey  = "session_id"
)

// Session resolves the client session from the X-Session-ID header or the
// sid cookie and issues a new one when neither is present.
func Session(cookieTTLSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sid == "" {
			if v, err := c.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(v)
			}
		}
		if !validSessionID(sid) {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, cookieTTLSeconds, "/", "", false, true)
		}
		c.Set(sessionIDKey, sid)
		c.Writer.Header().Set(SessionHeader, sid)
		c.Request = c.Request.WithContext(auth.WithSessionID(c.Request.Context(), sid))
		c.Next()
	}
}

func validSessionID(sid string) bool {
	if sid == "" || len(sid) > 64 {
		return false
	}
	for _, r := range sid {
		if !(r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

func GetSessionID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(sessionIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
