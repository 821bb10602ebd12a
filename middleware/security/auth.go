package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"CommLink/tools/errs"
	sec "CommLink/tools/security"
)

// context keys shared by every authed route
const (
	CtxTokenKey  = "authorization"
	CtxUserIDKey = "auth_user_id"
)

type Options struct {
	JWT sec.Options

	HeaderToken               string // default "authorization"
	EnableAuthorizationBearer bool   // default true
}

func DefaultOptions(jwt sec.Options) *Options {
	return &Options{
		JWT:                       jwt,
		HeaderToken:               CtxTokenKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware verifies the caller's JWT and stores the token and the
// subject user ID in the gin context.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// accept Authorization: Bearer xxx too
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(opts.JWT, token, "")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired.WithDetail(err.Error()))
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, claims.UserID())
		c.Next()
	}
}

// CallerID returns the authenticated user's ID, empty when the route
// ran without the auth middleware.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
