// Package payments implements the payment lifecycle: opening a hosted
// checkout session with the external provider, persisting the pending row,
// and reconciling it to a terminal state from provider webhooks.
package payments

// Provider-neutral event types the reconciler acts on.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Event is the provider-neutral view of a webhook callback.
type Event struct {
	Type      string
	SessionID string // set for checkout lifecycle events
}

type CheckoutParams struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	SuccessURL       string
	CancelURL        string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Provider is the narrow capability surface the payment core needs from an
// external card-payment provider. Tests substitute a fake.
type Provider interface {
	Name() string
	CreateCheckoutSession(p CheckoutParams) (*CheckoutSession, error)
	// VerifyAndParse authenticates a raw webhook payload against its
	// signature header and decodes it. It returns an AuthenticationError
	// when the signature does not verify.
	VerifyAndParse(payload []byte, sigHeader string) (*Event, error)
}
