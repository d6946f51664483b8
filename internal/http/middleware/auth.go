package middleware

import (
	"strings"

	"busbooking/internal/auth"

	"github.com/gin-gonic/gin"
)

const TokenCookie = "token"

// BearerToken copies the caller's token into the request context, where the
// identity provider reads it. Requests without a token pass through.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := ""
		if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			tok = strings.TrimSpace(h[7:])
		}
		if tok == "" {
			if v, err := c.Cookie(TokenCookie); err == nil {
				tok = strings.TrimSpace(v)
			}
		}
		if tok != "" {
			c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), tok))
		}
		c.Next()
	}
}
