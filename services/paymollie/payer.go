package paymollie

import (
	"context"
	"fmt"

	"github.com/VictorAvelar/mollie-api-go/v3/mollie"

	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const providerName = "mollie"

// Payer creates a hosted payment page on the Mollie platform and hands the
// shopper the payment link.
type Payer struct {
	client  *mollie.Client
	baseURL string
	logger  mylog.Logger
}

func NewPayer(apiKey string, baseURL string) (*Payer, error) {
	config := mollie.NewAPITestingConfig(true)

	client, err := mollie.NewClient(nil, config)
	if err != nil {
		return nil, fmt.Errorf("error creating mollie client: %s", err)
	}
	client.WithAuthenticationValue(apiKey)

	return &Payer{
		client:  client,
		baseURL: baseURL,
		logger:  mylog.New("paymollie"),
	}, nil
}

func (p *Payer) Name() string {
	return providerName
}

func (p *Payer) RequestPayable(c context.Context, intent checkoutapi.OrderIntent) (checkoutapi.PayableReference, error) {
	request := mollie.Payment{
		Description: fmt.Sprintf("%s order %s", intent.Title, intent.CheckoutUID),
		Amount: &mollie.Amount{
			Currency: checkoutapi.Currency,
			Value:    intent.TotalAmount.StringFixed(2),
		},
		RedirectURL: fmt.Sprintf("%s/payment/result?checkout=%s&status=approved", p.baseURL, intent.CheckoutUID),
		CancelURL:   fmt.Sprintf("%s/payment/result?checkout=%s&status=failure", p.baseURL, intent.CheckoutUID),
		WebhookURL:  fmt.Sprintf("%s/checkout/%s/webhook", p.baseURL, intent.CheckoutUID),
		Metadata: map[string]string{
			"checkoutUID": intent.CheckoutUID,
			"sessionUID":  intent.SessionUID,
		},
	}

	_, payment, err := p.client.Payments.Create(c, request, nil)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error creating mollie payment for checkout %s: %s", intent.CheckoutUID, err)
	}

	if payment.Links.Checkout == nil || payment.Links.Checkout.Href == "" {
		return checkoutapi.PayableReference{}, fmt.Errorf("mollie returned no checkout link for checkout %s", intent.CheckoutUID)
	}

	p.logger.Log(c, intent.CheckoutUID, mylog.SeverityInfo, "Created mollie payment %s for checkout %s", payment.ID, intent.CheckoutUID)

	return checkoutapi.PayableReference{
		Provider:    providerName,
		PaymentID:   payment.ID,
		PaymentLink: payment.Links.Checkout.Href,
	}, nil
}
