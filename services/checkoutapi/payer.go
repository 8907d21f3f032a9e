package checkoutapi

import "context"

//go:generate mockgen -source=payer.go -package checkoutapi -destination payer_mock.go Payer

// Payer abstracts a payment provider. Implementations turn an order intent
// into a payable reference (link, QR payload or deeplink) that can be
// presented to the shopper.
type Payer interface {
	Name() string
	RequestPayable(c context.Context, intent OrderIntent) (PayableReference, error)
}
