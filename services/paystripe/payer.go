package paystripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"

	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const providerName = "stripe"

var centsPerUnit = decimal.NewFromInt(100)

// Payer creates a checkout session on the Stripe platform and hands the
// shopper the hosted payment page link.
type Payer struct {
	baseURL string
	logger  mylog.Logger
}

func NewPayer(apiKey string, baseURL string) *Payer {
	stripe.Key = apiKey

	return &Payer{
		baseURL: baseURL,
		logger:  mylog.New("paystripe"),
	}
}

func (p *Payer) Name() string {
	return providerName
}

func (p *Payer) RequestPayable(c context.Context, intent checkoutapi.OrderIntent) (checkoutapi.PayableReference, error) {
	params := stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(fmt.Sprintf("%s/payment/result?checkout=%s&status=approved", p.baseURL, intent.CheckoutUID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/payment/result?checkout=%s&status=failure", p.baseURL, intent.CheckoutUID)),
		ClientReferenceID: stripe.String(intent.CheckoutUID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency:          stripe.String(strings.ToLower(checkoutapi.Currency)),
		LineItems:         lineItemsFromIntent(intent),
	}
	params.Context = c

	sess, err := session.New(&params)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error creating stripe session for checkout %s: %s", intent.CheckoutUID, err)
	}

	if sess.URL == "" {
		return checkoutapi.PayableReference{}, fmt.Errorf("stripe returned no payment page for checkout %s", intent.CheckoutUID)
	}

	p.logger.Log(c, intent.CheckoutUID, mylog.SeverityInfo, "Created stripe session %s for checkout %s", sess.ID, intent.CheckoutUID)

	return checkoutapi.PayableReference{
		Provider:    providerName,
		PaymentID:   sess.ID,
		PaymentLink: sess.URL,
	}, nil
}

func lineItemsFromIntent(intent checkoutapi.OrderIntent) []*stripe.CheckoutSessionLineItemParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(intent.Lines))
	for _, line := range intent.Lines {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(checkoutapi.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				// stripe wants the amount in cents
				UnitAmount: stripe.Int64(line.Price.Mul(centsPerUnit).IntPart()),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}
	return items
}
