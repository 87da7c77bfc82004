package controllers

import (
	"pomoc-backend/payments"
	"pomoc-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type PaymentController struct {
	Service *payments.Service
}

func NewPaymentController(service *payments.Service) *PaymentController {
	return &PaymentController{Service: service}
}

// CreateSession opens a provider checkout session for a help request and
// returns the session id, the local payment id, and the hosted checkout URL.
func (pc *PaymentController) CreateSession(c *fiber.Ctx) error {
	var in payments.CreateSessionInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if in.UserID == nil {
		// Fall back to the authenticated caller, if any.
		if subject, _ := c.Locals("userID").(string); subject != "" {
			in.UserID = subject
		}
	}

	result, err := pc.Service.CreateSession(in)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Webhook receives the provider's raw event payload. Anything the system
// cannot act on is still acknowledged with 200 so the provider does not
// retry-storm; only signature failures and unparseable bodies error.
func (pc *PaymentController) Webhook(c *fiber.Ctx) error {
	outcome, err := pc.Service.HandleWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true, "status": string(outcome)})
}

// AdminList returns all payment rows, newest first.
func (pc *PaymentController) AdminList(c *fiber.Ctx) error {
	rows, err := pc.Service.ListPayments()
	if err != nil {
		return err
	}
	limit := utils.ParseIntDefault(c.Query("limit"), 0)
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return c.JSON(rows)
}
