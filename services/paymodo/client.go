package paymodo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thepointbar/posbackend/lib/myhttpclient"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const providerName = "modo"

// Client talks to the alternative checkout gateway. Next to a QR payload it
// returns a deeplink that opens the payment in the wallet app directly.
type Client struct {
	baseURL string
	sender  myhttpclient.HTTPSender
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewClient(baseURL string, sender myhttpclient.HTTPSender) *Client {
	return &Client{
		baseURL: baseURL,
		sender:  sender,
		logger:  mylog.New("paymodo"),
	}
}

func (p *Client) Name() string {
	return providerName
}

type checkoutRequest struct {
	ExternalReference string         `json:"externalReference"`
	TotalAmount       string         `json:"totalAmount"`
	Currency          string         `json:"currency"`
	Items             []checkoutItem `json:"items"`
}

type checkoutItem struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type checkoutResponse struct {
	CheckoutID string `json:"checkoutId"`
	QRPayload  string `json:"qr"`
	Deeplink   string `json:"deeplink"`
}

func (p *Client) RequestPayable(c context.Context, intent checkoutapi.OrderIntent) (checkoutapi.PayableReference, error) {
	request := checkoutRequest{
		ExternalReference: intent.CheckoutUID,
		TotalAmount:       intent.TotalAmount.StringFixed(2),
		Currency:          checkoutapi.Currency,
		Items:             itemsFromIntent(intent),
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error marshalling checkout request: %s", err)
	}

	url := p.baseURL + "/payments/alt-checkout"
	httpStatus, responseBytes, err := p.sender.Send(c, http.MethodPost, url, requestBytes)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error requesting alt-checkout for checkout %s: %s", intent.CheckoutUID, err)
	}
	if httpStatus != http.StatusOK && httpStatus != http.StatusCreated {
		return checkoutapi.PayableReference{}, fmt.Errorf("alt-checkout gateway returned status %d for checkout %s", httpStatus, intent.CheckoutUID)
	}

	response := checkoutResponse{}
	err = json.Unmarshal(responseBytes, &response)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error unmarshalling checkout response: %s", err)
	}

	if response.QRPayload == "" && response.Deeplink == "" {
		return checkoutapi.PayableReference{}, fmt.Errorf("alt-checkout gateway returned nothing presentable for checkout %s", intent.CheckoutUID)
	}

	p.logger.Log(c, intent.CheckoutUID, mylog.SeverityInfo, "Obtained alt-checkout payable %s for checkout %s", response.CheckoutID, intent.CheckoutUID)

	return checkoutapi.PayableReference{
		Provider:  providerName,
		PaymentID: response.CheckoutID,
		QRPayload: response.QRPayload,
		Deeplink:  response.Deeplink,
	}, nil
}

func itemsFromIntent(intent checkoutapi.OrderIntent) []checkoutItem {
	items := make([]checkoutItem, 0, len(intent.Lines))
	for _, line := range intent.Lines {
		items = append(items, checkoutItem{
			Name:      line.Name,
			UnitPrice: line.Price.StringFixed(2),
			Quantity:  line.Quantity,
		})
	}
	return items
}
