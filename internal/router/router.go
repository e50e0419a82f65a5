// Package router wires handlers, middleware and route groups onto the Echo
// instance. Authentication and authorization are applied here, per group,
// so every handler body can assume its gates already ran.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/handler"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/obs"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Public       *handler.PublicHandler
	Services     *handler.ServiceHandler
	Appointments *handler.AppointmentHandler
	Messages     *handler.MessageHandler
	Reviews      *handler.ReviewHandler
	Products     *handler.ProductHandler
	Admin        *handler.AdminHandler
}

// Deps carries the middleware dependencies.
type Deps struct {
	Issuer *auth.Issuer
	Users  *repository.UserRepo
	Cache  echo.MiddlewareFunc // response cache for public browse routes
}

// Register mounts every route. Layout:
//
//	/healthz, /metrics      – unauthenticated infrastructure endpoints
//	/v1/auth/*              – registration, login, token and reset flows
//	/v1/* (public group)    – browse surface, optionally authenticated
//	/v1/* (subject group)   – everything requiring a live subject
//	/v1/admin/*             – user administration and analytics
func Register(e *echo.Echo, h Handlers, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(obs.MetricsHandler()))

	// Unauthenticated auth flows.
	ag := e.Group("/v1/auth")
	ag.POST("/register", h.Auth.Register)
	ag.POST("/login", h.Auth.Login)
	ag.POST("/refresh", h.Auth.Refresh)
	ag.POST("/password-reset", h.Auth.RequestPasswordReset)
	ag.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
	ag.POST("/verify-email/confirm", h.Auth.ConfirmEmailVerify)

	// Public browse surface. OptionalAuthenticate attaches the subject when
	// a valid token is present so responses can personalize; the response
	// cache only serves anonymous requests.
	pub := e.Group("/v1", middleware.OptionalAuthenticate(d.Issuer, d.Users))
	if d.Cache != nil {
		pub.Use(d.Cache)
	}
	pub.GET("/services", h.Services.Browse)
	pub.GET("/services/:id", h.Services.Get)
	pub.GET("/products", h.Products.Browse)
	pub.GET("/products/:id", h.Products.Get)
	pub.GET("/practitioners/:id", h.Public.Practitioner)
	pub.GET("/practitioners/:id/reviews", h.Reviews.ForPractitioner)

	// Everything below requires a live, active subject.
	sg := e.Group("/v1", middleware.Authenticate(d.Issuer, d.Users))
	sg.GET("/me", h.Auth.Me)
	sg.PUT("/me", h.Profile.UpdateMe)
	sg.POST("/auth/logout", h.Auth.Logout)
	sg.POST("/auth/verify-email", h.Auth.RequestEmailVerify)

	// Practitioner catalog management.
	svc := sg.Group("", middleware.RequireRole(auth.RolePractitioner))
	svc.Use(middleware.RequirePermission(auth.PermServicesManage))
	svc.POST("/services", h.Services.Create)
	svc.PUT("/services/:id", h.Services.Update)
	svc.DELETE("/services/:id", h.Services.Delete)
	svc.GET("/my/services", h.Services.Mine)

	// Appointments. Booking is customer-side; lifecycle transitions check
	// ownership in the handler because the resource owner is per-record.
	sg.POST("/appointments", h.Appointments.Book, middleware.RequireRole(auth.RoleCustomer))
	sg.GET("/appointments/:id", h.Appointments.Get)
	sg.POST("/appointments/:id/confirm", h.Appointments.Confirm)
	sg.POST("/appointments/:id/complete", h.Appointments.Complete)
	sg.POST("/appointments/:id/cancel", h.Appointments.Cancel)
	sg.GET("/my/appointments", h.Appointments.Mine)
	sg.GET("/my/schedule", h.Appointments.Schedule, middleware.RequireRole(auth.RolePractitioner))

	// Messaging.
	sg.POST("/messages", h.Messages.Send)
	sg.GET("/messages/inbox", h.Messages.Inbox)
	sg.GET("/messages/outbox", h.Messages.Outbox)
	sg.GET("/messages/thread/:id", h.Messages.Thread)
	sg.POST("/messages/:id/read", h.Messages.MarkRead)

	// Reviews.
	sg.POST("/reviews", h.Reviews.Create, middleware.RequireRole(auth.RoleCustomer))
	sg.GET("/my/reviews", h.Reviews.Mine)
	sg.DELETE("/reviews/:id", h.Reviews.Delete)

	// Product catalog management.
	pm := sg.Group("", middleware.RequirePermission(auth.PermProductsManage))
	pm.POST("/products", h.Products.Create)
	pm.PUT("/products/:id", h.Products.Update)
	pm.DELETE("/products/:id", h.Products.Delete)

	// Administration.
	adm := sg.Group("/admin", middleware.RequirePermission(auth.PermUsersManage))
	adm.GET("/users", h.Admin.ListUsers)
	adm.PUT("/users/:id/active", h.Admin.SetActive)
	adm.PUT("/users/:id/profile", h.Profile.UpdateUser)
	adm.PUT("/users/:id/role", h.Admin.SetRole)
	sg.GET("/admin/analytics", h.Admin.Analytics, middleware.RequirePermission(auth.PermAnalyticsView))
}
