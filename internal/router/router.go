package router // route registration for the HTTP API

import (
	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/handler"
	"github.com/MintEngine/mintcraft-node/internal/middleware"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Session-free
// operations live under /v1/auth; /v1/me sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works without the JWT middleware: a refresh_token body
	// revokes one session, a bearer header revokes all of them.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleManager, model.RolePlayer, model.RoleServer))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog endpoints.  The
// response cache middleware is applied here so only browse traffic is
// cached.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/dungeons", b.ListDungeons)
	g.GET("/dungeons/:id", b.GetDungeon)
	g.GET("/tickets/:ticket_id", b.GetTicket)
	g.GET("/assets", b.ListAssets)
}

// RegisterManager registers the MANAGER-only surfaces: the dungeon
// registry, the asset registry and the manager registry.
func RegisterManager(e *echo.Echo, d *handler.DungeonHandler, admin *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/manager")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleManager))

	g.POST("/dungeons", d.Create)
	g.PATCH("/dungeons/:id/price", d.ModifyPrice)
	g.PATCH("/dungeons/:id/assets", d.ModifyAssets)
	g.PATCH("/dungeons/:id/distribution", d.ModifyDistribution)

	g.POST("/assets", admin.CreateAsset)
	g.PATCH("/assets/:id/in-using", admin.SetAssetInUsing)
	g.GET("/assets/:id/balances/:account_id", admin.AssetBalance)

	g.POST("/managers/:id/promote", admin.PromoteManager)
	g.POST("/managers/:id/demote", admin.DemoteManager)
}

// RegisterTickets registers the booking and lifecycle endpoints.
// Booking is a player action, claiming and reporting are server
// actions, finalizing is open to every role and arbitrated by the
// engine.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group("/v1/tickets")
	g.Use(middleware.JWTAuth(jwtSecret))

	buy := g.Group("")
	buy.Use(middleware.RequireRole(model.RolePlayer, model.RoleManager))
	buy.POST("", t.Buy)
	buy.GET("/mine", t.Mine)

	srv := g.Group("")
	srv.Use(middleware.RequireRole(model.RoleServer))
	srv.POST("/:ticket_id/start", t.Start)
	srv.POST("/:ticket_id/end", t.End)

	fin := g.Group("")
	fin.Use(middleware.RequireRole(model.RoleManager, model.RolePlayer, model.RoleServer))
	fin.POST("/:ticket_id/finalize", t.Finalize)
}
