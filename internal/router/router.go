// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/financeflow/financeflow-api/internal/auth"
	"github.com/financeflow/financeflow-api/internal/handler"
	"github.com/financeflow/financeflow-api/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication context.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Signup, login, logout, refresh
// and the OAuth pair are open; /auth/me sits behind the access-token
// middleware so its handler receives resolved identity claims.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, codec *auth.Codec) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.POST("/refresh", a.Refresh)
	g.GET("/oauth/google", o.GoogleAuthorize)
	g.GET("/oauth/google/callback", o.GoogleCallback)

	me := g.Group("/me")
	me.Use(middleware.JWTAuth(codec))
	me.GET("", a.Me)
}
