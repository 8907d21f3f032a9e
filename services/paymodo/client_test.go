package paymodo

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/thepointbar/posbackend/lib/myhttpclient"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

var intent = checkoutapi.OrderIntent{
	CheckoutUID: "checkout_1",
	SessionUID:  "session_1",
	Title:       "The Point Bar",
	Lines: []checkoutapi.OrderLine{
		{ProductUID: "prod_wine", Name: "Wine", Price: decimal.NewFromInt(2500), Quantity: 1},
	},
	TotalAmount: decimal.NewFromInt(2500),
}

func TestRequestPayable(t *testing.T) {

	t.Run("Gateway returns qr and deeplink", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		client := NewClient("https://modo.example.com", sender)
		sender.EXPECT().Send(gomock.Any(), http.MethodPost,
			"https://modo.example.com/payments/alt-checkout", gomock.Any()).
			Return(201, []byte(`{"checkoutId":"chk_1","qr":"00020101021243...","deeplink":"modo://payments/chk_1"}`), nil)

		// when
		payable, err := client.RequestPayable(context.TODO(), intent)

		// then
		assert.NoError(t, err)
		assert.Equal(t, "modo", payable.Provider)
		assert.Equal(t, "chk_1", payable.PaymentID)
		assert.Equal(t, "00020101021243...", payable.QRPayload)
		assert.Equal(t, "modo://payments/chk_1", payable.Deeplink)
	})

	t.Run("Gateway returns nothing presentable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		client := NewClient("https://modo.example.com", sender)
		sender.EXPECT().Send(gomock.Any(), http.MethodPost, gomock.Any(), gomock.Any()).
			Return(200, []byte(`{"checkoutId":"chk_1"}`), nil)

		// when
		_, err := client.RequestPayable(context.TODO(), intent)

		// then
		assert.Error(t, err)
	})
}
