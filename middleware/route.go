package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "CommLink/middleware/security"
)

// RouteOpt configures per-route middleware.
type RouteOpt struct {
	IsAuth bool
}

var authOpts *midsec.Options

// ConfigAuth installs the JWT options used by authed routes. Call once
// before registering routes.
func ConfigAuth(opts *midsec.Options) { authOpts = opts }

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(authOpts), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(authOpts), handler)
	} else {
		r.GET(path, handler)
	}
}
