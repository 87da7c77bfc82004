package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"pomoc-backend/apperrors"
	"pomoc-backend/controllers"
	"pomoc-backend/database"
	"pomoc-backend/middlewares"
	"pomoc-backend/models"
	"pomoc-backend/payments"
	"pomoc-backend/routes"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvider implements payments.Provider for HTTP-level tests. Webhook
// payloads are {"type": ..., "session_id": ...} and any signature except
// "invalid" verifies.
type fakeProvider struct {
	createCalls int
}

func (f *fakeProvider) Name() string { return "stripe" }

func (f *fakeProvider) CreateCheckoutSession(p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.createCalls++
	return &payments.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", f.createCalls),
		URL: "https://checkout.example/pay",
	}, nil
}

func (f *fakeProvider) VerifyAndParse(payload []byte, sig string) (*payments.Event, error) {
	if sig == "invalid" {
		return nil, &apperrors.AuthenticationError{Msg: "invalid stripe signature"}
	}
	var body struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	return &payments.Event{Type: body.Type, SessionID: body.SessionID}, nil
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-0123456789")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	service := payments.NewService(db, &fakeProvider{}, "http://localhost:3000")

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app, db,
		controllers.NewAuthController(db),
		controllers.NewRequestController(db, t.TempDir()),
		controllers.NewPaymentController(service),
	)
	return &testEnv{app: app, db: db}
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	admin := models.User{Email: "admin@example.com", Role: models.RoleAdmin}
	admin.SetPassword("password123")
	if err := e.db.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}
	token, err := middlewares.GenerateJWT(strconv.FormatUint(uint64(admin.ID), 10), admin.Role)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// TestPaymentEndToEnd walks the whole lifecycle: create request, open a
// checkout session, reconcile the completed webhook, redeliver it.
func TestPaymentEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminHeaders(t)

	// Create request
	resp := env.doJSON(t, fiber.MethodPost, "/requests", fiber.Map{"title": "Fix roof"}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("create request status = %d", resp.StatusCode)
	}
	var request models.HelpRequest
	decodeBody(t, resp, &request)
	if request.ID == 0 || request.Status != models.RequestOpen {
		t.Fatalf("unexpected request: %+v", request)
	}

	// Create session
	resp = env.doJSON(t, fiber.MethodPost, "/payments/create-session", fiber.Map{
		"request_id":         request.ID,
		"amount_minor_units": 5000,
		"currency":           "EUR",
	}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	var session payments.SessionResult
	decodeBody(t, resp, &session)
	if session.SessionID == "" || session.PaymentID == 0 {
		t.Fatalf("incomplete session result: %+v", session)
	}

	// Row is pending with the right amount before any webhook
	resp = env.doJSON(t, fiber.MethodGet, "/payments/admin/list", nil, admin)
	var rows []models.Payment
	decodeBody(t, resp, &rows)
	if len(rows) != 1 || rows[0].Status != models.PaymentPending || rows[0].AmountMinorUnits != 5000 {
		t.Fatalf("unexpected payment list: %+v", rows)
	}

	// Deliver the completed-checkout event
	webhookBody := fiber.Map{"type": "checkout.session.completed", "session_id": session.SessionID}
	resp = env.doJSON(t, fiber.MethodPost, "/payments/webhook", webhookBody, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("webhook status = %d", resp.StatusCode)
	}
	var ack map[string]any
	decodeBody(t, resp, &ack)
	if ack["received"] != true || ack["status"] != "updated" {
		t.Fatalf("unexpected ack: %v", ack)
	}

	var payment models.Payment
	if err := env.db.First(&payment, session.PaymentID).Error; err != nil {
		t.Fatal(err)
	}
	if payment.Status != models.PaymentSucceeded {
		t.Fatalf("status = %q, want succeeded", payment.Status)
	}
	firstUpdate := payment.UpdatedAt

	// Redeliver: still 200, row unchanged
	resp = env.doJSON(t, fiber.MethodPost, "/payments/webhook", webhookBody, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("redelivered webhook status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &ack)
	if ack["status"] != "no_match" {
		t.Fatalf("redelivery ack = %v", ack)
	}
	if err := env.db.First(&payment, session.PaymentID).Error; err != nil {
		t.Fatal(err)
	}
	if payment.Status != models.PaymentSucceeded || !payment.UpdatedAt.Equal(firstUpdate) {
		t.Fatalf("row changed on redelivery: %+v", payment)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, fiber.MethodPost, "/payments/create-session", fiber.Map{
		"request_id":         1,
		"amount_minor_units": 0,
	}, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("zero amount status = %d, want 400", resp.StatusCode)
	}

	resp = env.doJSON(t, fiber.MethodPost, "/payments/create-session", fiber.Map{
		"amount_minor_units": 100,
	}, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing request_id status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookInvalidSignatureHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, fiber.MethodPost, "/payments/webhook", fiber.Map{
		"type": "checkout.session.completed", "session_id": "cs_x",
	}, map[string]string{"Stripe-Signature": "invalid"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid signature status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookUnknownEventHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, fiber.MethodPost, "/payments/webhook", fiber.Map{
		"type": "invoice.finalized",
	}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unknown event status = %d, want 200", resp.StatusCode)
	}
	var ack map[string]any
	decodeBody(t, resp, &ack)
	if ack["status"] != "ignored" {
		t.Fatalf("ack = %v", ack)
	}
}

func TestPaymentListRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, fiber.MethodGet, "/payments/admin/list", nil, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", resp.StatusCode)
	}

	user := models.User{Email: "user@example.com", Role: models.RoleUser}
	user.SetPassword("password123")
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	token, err := middlewares.GenerateJWT(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		t.Fatal(err)
	}
	resp = env.doJSON(t, fiber.MethodGet, "/payments/admin/list", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateSessionIdempotencyKeyReplays(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminHeaders(t)

	resp := env.doJSON(t, fiber.MethodPost, "/requests", fiber.Map{"title": "Fix roof"}, nil)
	var request models.HelpRequest
	decodeBody(t, resp, &request)

	body := fiber.Map{"request_id": request.ID, "amount_minor_units": 100}
	headers := map[string]string{"Idempotency-Key": "retry-1"}

	resp = env.doJSON(t, fiber.MethodPost, "/payments/create-session", body, headers)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first call status = %d", resp.StatusCode)
	}
	var first payments.SessionResult
	decodeBody(t, resp, &first)

	// Same key, same body: stored response replayed, no second session.
	resp = env.doJSON(t, fiber.MethodPost, "/payments/create-session", body, headers)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("replay status = %d", resp.StatusCode)
	}
	var second payments.SessionResult
	decodeBody(t, resp, &second)
	if second.SessionID != first.SessionID || second.PaymentID != first.PaymentID {
		t.Fatalf("replay returned a different session: %+v vs %+v", first, second)
	}

	resp = env.doJSON(t, fiber.MethodGet, "/payments/admin/list", nil, admin)
	var rows []models.Payment
	decodeBody(t, resp, &rows)
	if len(rows) != 1 {
		t.Fatalf("want 1 payment row, got %d", len(rows))
	}
}
