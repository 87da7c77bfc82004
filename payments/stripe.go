package payments

import (
	"encoding/json"

	"pomoc-backend/apperrors"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider on top of the Stripe SDK.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the global Stripe client key and returns the
// provider. An empty webhookSecret puts webhook parsing into degraded mode
// (payloads accepted unverified); every such parse is logged as a warning.
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateCheckoutSession(cp CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(cp.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(cp.Description),
				},
				UnitAmount: stripe.Int64(cp.AmountMinorUnits),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, &apperrors.ProviderError{Op: "create stripe checkout session", Err: err}
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) VerifyAndParse(payload []byte, sigHeader string) (*Event, error) {
	var event stripe.Event
	if p.webhookSecret != "" {
		verified, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, &apperrors.AuthenticationError{Msg: "invalid stripe signature", Err: err}
		}
		event = verified
	} else {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set; parsing webhook payload unverified")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, apperrors.Validation("unparseable webhook payload")
		}
	}

	out := &Event{Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		if event.Data == nil {
			return nil, apperrors.Validation("checkout event missing data")
		}
		var sess struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			return nil, apperrors.Validation("checkout event missing session id")
		}
		out.SessionID = sess.ID
	}
	return out, nil
}
