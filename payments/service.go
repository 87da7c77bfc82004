package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"pomoc-backend/apperrors"
	"pomoc-backend/models"
	"pomoc-backend/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReconcileOutcome describes what a webhook delivery did.
type ReconcileOutcome string

const (
	// OutcomeUpdated: a pending payment transitioned to a terminal state.
	OutcomeUpdated ReconcileOutcome = "updated"
	// OutcomeNoMatch: no pending row for the session (not yet committed, or
	// already terminal). Acknowledged; redelivery is harmless.
	OutcomeNoMatch ReconcileOutcome = "no_match"
	// OutcomeIgnored: recognized or unknown event type with no state to apply.
	OutcomeIgnored ReconcileOutcome = "ignored"
)

// Service owns the payment lifecycle over an injected store handle and
// provider, so tests can run it against an isolated database and a fake.
type Service struct {
	db       *gorm.DB
	provider Provider

	successURL string
	cancelURL  string
}

func NewService(db *gorm.DB, provider Provider, frontendURL string) *Service {
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	return &Service{
		db:       db,
		provider: provider,
		// The provider substitutes the real session id into the placeholder.
		successURL: frontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  frontendURL + "/payment-cancel",
	}
}

// CreateSessionInput carries caller-supplied fields. The identifier fields
// are deliberately untyped: clients have been observed sending numbers,
// numeric strings, and whole objects; NormalizeID sorts them out.
type CreateSessionInput struct {
	RequestID        any    `json:"request_id"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
	UserID           any    `json:"user_id"`
}

type SessionResult struct {
	SessionID   string `json:"sessionId"`
	PaymentID   uint   `json:"paymentId"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

// CreateSession opens a hosted checkout session for a help request and
// persists the pending payment row. The row is committed before returning:
// the provider may call the webhook back faster than a slow response path,
// and the reconciler needs the row to exist by then.
func (s *Service) CreateSession(in CreateSessionInput) (*SessionResult, error) {
	requestID, ok := utils.NormalizeID(in.RequestID)
	if !ok {
		return nil, apperrors.Validation("request_id is required")
	}
	if in.AmountMinorUnits <= 0 {
		return nil, apperrors.Validation("amount_minor_units must be a positive integer")
	}
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	// One cheap read before paying for the provider round trip: never open
	// a session for a request that does not exist.
	var request models.HelpRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, &apperrors.PersistenceError{Op: "load help request", Err: err}
	}

	sess, err := s.provider.CreateCheckoutSession(CheckoutParams{
		AmountMinorUnits: in.AmountMinorUnits,
		Currency:         currency,
		Description:      fmt.Sprintf("Help request #%d: %s", requestID, request.Title),
		SuccessURL:       s.successURL,
		CancelURL:        s.cancelURL,
	})
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		RequestID:         &requestID,
		Provider:          s.provider.Name(),
		ProviderSessionID: sess.ID,
		AmountMinorUnits:  in.AmountMinorUnits,
		Currency:          currency,
		Status:            models.PaymentPending,
	}
	if userID, ok := utils.NormalizeID(in.UserID); ok {
		payment.UserID = &userID
	}

	if err := s.db.Create(&payment).Error; err != nil {
		// The provider session already exists; this is the reconciliation
		// gap the operator has to resolve by hand, so give them the ids.
		log.Error().Err(err).
			Str("session_id", sess.ID).
			Uint("request_id", requestID).
			Msg("pending payment write failed after provider session was created")
		return nil, &apperrors.PersistenceError{Op: "store pending payment", Err: err}
	}

	log.Info().
		Str("session_id", sess.ID).
		Uint("payment_id", payment.ID).
		Uint("request_id", requestID).
		Int64("amount_minor_units", in.AmountMinorUnits).
		Msg("checkout session created")

	return &SessionResult{SessionID: sess.ID, PaymentID: payment.ID, CheckoutURL: sess.URL}, nil
}

// HandleWebhook verifies and applies one provider callback.
//
// The pending -> terminal transition is a single conditional UPDATE guarded
// by status = 'pending', so concurrently processed redeliveries cannot both
// apply, and a terminal row is never overwritten. Everything the system
// cannot act on (unknown event, unmatched session) is acknowledged, never
// errored: the provider would only burn its redelivery budget retrying.
func (s *Service) HandleWebhook(payload []byte, sigHeader string) (ReconcileOutcome, error) {
	event, err := s.provider.VerifyAndParse(payload, sigHeader)
	if err != nil {
		return "", err
	}

	var target models.PaymentStatus
	switch event.Type {
	case EventCheckoutCompleted:
		target = models.PaymentSucceeded
	case EventCheckoutExpired:
		target = models.PaymentFailed
	default:
		log.Info().Str("type", event.Type).Msg("webhook event ignored (no state to apply)")
		return OutcomeIgnored, nil
	}

	res := s.db.Model(&models.Payment{}).
		Where("provider = ? AND provider_session_id = ? AND status = ?",
			s.provider.Name(), event.SessionID, models.PaymentPending).
		Update("status", target)
	if res.Error != nil {
		return "", &apperrors.PersistenceError{Op: "update payment status", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		log.Info().
			Str("session_id", event.SessionID).
			Str("type", event.Type).
			Msg("no pending payment for session; acknowledging")
		return OutcomeNoMatch, nil
	}

	log.Info().
		Str("session_id", event.SessionID).
		Str("status", string(target)).
		Msg("payment reconciled")

	if target == models.PaymentSucceeded {
		s.notifySucceeded(event.SessionID)
	}
	return OutcomeUpdated, nil
}

// notifySucceeded records a notification for the paying user, if known.
// Best effort: a failed write must not turn a reconciled webhook into an
// error response.
func (s *Service) notifySucceeded(sessionID string) {
	var payment models.Payment
	if err := s.db.Where("provider = ? AND provider_session_id = ?", s.provider.Name(), sessionID).
		First(&payment).Error; err != nil || payment.UserID == nil {
		return
	}

	payload, _ := json.Marshal(map[string]any{
		"payment_id":         payment.ID,
		"request_id":         payment.RequestID,
		"amount_minor_units": payment.AmountMinorUnits,
		"currency":           payment.Currency,
	})
	notification := models.Notification{
		UserID:  *payment.UserID,
		Type:    "payment_succeeded",
		Payload: datatypes.JSON(payload),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		log.Warn().Err(err).Uint("payment_id", payment.ID).Msg("could not store payment notification")
	}
}

// ListPayments returns all payment rows, newest first.
func (s *Service) ListPayments() ([]models.Payment, error) {
	var rows []models.Payment
	if err := s.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, &apperrors.PersistenceError{Op: "list payments", Err: err}
	}
	return rows, nil
}
