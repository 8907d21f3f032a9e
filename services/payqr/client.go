package payqr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thepointbar/posbackend/lib/myhttpclient"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const providerName = "qr"

// Client talks to the interoperable-QR payment gateway. The gateway returns
// an EMV QR payload that any wallet app can scan.
type Client struct {
	baseURL     string
	accessToken string
	sender      myhttpclient.HTTPSender
	logger      mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewClient(baseURL string, accessToken string, sender myhttpclient.HTTPSender) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		sender:      sender,
		logger:      mylog.New("payqr"),
	}
}

func (p *Client) Name() string {
	return providerName
}

type paymentRequest struct {
	Title             string        `json:"title"`
	ExternalReference string        `json:"externalReference"`
	SessionID         string        `json:"sessionId"`
	TotalAmount       string        `json:"totalAmount"`
	Currency          string        `json:"currency"`
	Items             []paymentItem `json:"items"`
}

type paymentItem struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type paymentResponse struct {
	PaymentID string `json:"paymentId"`
	QRPayload string `json:"qrData"`
}

func (p *Client) RequestPayable(c context.Context, intent checkoutapi.OrderIntent) (checkoutapi.PayableReference, error) {
	request := paymentRequest{
		Title:             intent.Title,
		ExternalReference: intent.CheckoutUID,
		SessionID:         intent.SessionUID,
		TotalAmount:       intent.TotalAmount.StringFixed(2),
		Currency:          checkoutapi.Currency,
		Items:             itemsFromIntent(intent),
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error marshalling payment request: %s", err)
	}

	url := fmt.Sprintf("%s/payments/qr?access_token=%s", p.baseURL, p.accessToken)
	httpStatus, responseBytes, err := p.sender.Send(c, http.MethodPost, url, requestBytes)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error requesting qr payment for checkout %s: %s", intent.CheckoutUID, err)
	}
	if httpStatus != http.StatusOK && httpStatus != http.StatusCreated {
		return checkoutapi.PayableReference{}, fmt.Errorf("qr gateway returned status %d for checkout %s", httpStatus, intent.CheckoutUID)
	}

	response := paymentResponse{}
	err = json.Unmarshal(responseBytes, &response)
	if err != nil {
		return checkoutapi.PayableReference{}, fmt.Errorf("error unmarshalling payment response: %s", err)
	}

	if response.QRPayload == "" {
		return checkoutapi.PayableReference{}, fmt.Errorf("qr gateway returned no qr payload for checkout %s", intent.CheckoutUID)
	}

	p.logger.Log(c, intent.CheckoutUID, mylog.SeverityInfo, "Obtained qr payable %s for checkout %s", response.PaymentID, intent.CheckoutUID)

	return checkoutapi.PayableReference{
		Provider:  providerName,
		PaymentID: response.PaymentID,
		QRPayload: response.QRPayload,
	}, nil
}

func itemsFromIntent(intent checkoutapi.OrderIntent) []paymentItem {
	items := make([]paymentItem, 0, len(intent.Lines))
	for _, line := range intent.Lines {
		items = append(items, paymentItem{
			Name:      line.Name,
			UnitPrice: line.Price.StringFixed(2),
			Quantity:  line.Quantity,
		})
	}
	return items
}
