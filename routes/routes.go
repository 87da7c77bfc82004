package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pomoc-backend/controllers"
	"pomoc-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(
	app *fiber.App,
	db *gorm.DB,
	auth *controllers.AuthController,
	requests *controllers.RequestController,
	payments *controllers.PaymentController,
) {
	// Public auth endpoints
	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)
	app.Get("/auth/me", middlewares.IsAuthenticatedHeader(), auth.Me)

	authed := middlewares.IsAuthenticatedHeader()
	adminOnly := middlewares.RequireAdmin()

	// Help requests. Creation is open to anonymous callers; a valid token
	// just attaches the owner.
	app.Post("/requests", middlewares.OptionalAuth(), middlewares.Idempotency(db), requests.Create)
	app.Get("/requests/admin/list", authed, adminOnly, requests.AdminList)
	app.Patch("/requests/admin/:id", authed, adminOnly, requests.AdminUpdate)
	app.Get("/requests/:id", requests.Get)
	app.Delete("/requests/:id", authed, adminOnly, requests.Delete)
	app.Post("/requests/:id/attachments", middlewares.OptionalAuth(), requests.UploadAttachment)

	// Payments. The webhook skips the Idempotency-Key middleware: the
	// reconciler carries its own idempotency keyed on the session id.
	app.Post("/payments/create-session", middlewares.OptionalAuth(), middlewares.Idempotency(db), payments.CreateSession)
	app.Post("/payments/webhook", payments.Webhook)
	app.Get("/payments/admin/list", authed, adminOnly, payments.AdminList)
}
