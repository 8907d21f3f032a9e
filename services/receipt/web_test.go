package receipt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

var intent = checkoutapi.OrderIntent{
	CheckoutUID: "checkout_1",
	SessionUID:  "session_1",
	Title:       "The Point Bar",
	Lines: []checkoutapi.OrderLine{
		{ProductUID: "prod_beer", Name: "Beer", Price: decimal.NewFromInt(1500), Quantity: 3},
		{ProductUID: "prod_wine", Name: "Wine", Price: decimal.NewFromInt(2500), Quantity: 1},
	},
	TotalAmount: decimal.NewFromInt(7000),
}

func TestReceiptService(t *testing.T) {

	t.Run("Print produces one unit per item", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, receiptStore, service, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		err := service.Print(ctx, "checkout_1", intent, "pay_123")

		// then
		assert.NoError(t, err)
		receipt, exists, _ := receiptStore.Get(ctx, "checkout_1")
		assert.True(t, exists)
		assert.Len(t, receipt.Units, 4)
		assert.Equal(t, "Beer", receipt.Units[0].ProductName)
		assert.Equal(t, "Wine", receipt.Units[3].ProductName)
		assert.Equal(t, "pay_123", receipt.PaymentID)
	})

	t.Run("Printing twice overwrites the same receipt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, _, receiptStore, service, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)

		// when
		err := service.Print(ctx, "checkout_1", intent, "pay_123")
		assert.NoError(t, err)
		err = service.Print(ctx, "checkout_1", intent, "pay_123")
		assert.NoError(t, err)

		// then
		receipts, _ := receiptStore.List(ctx)
		assert.Len(t, receipts, 1)
	})

	t.Run("Receipt page renders a fragment per unit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, service, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		err := service.Print(ctx, "checkout_1", intent, "pay_123")
		assert.NoError(t, err)

		// when
		request, err := http.NewRequest(http.MethodGet, "/receipt/checkout_1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Equal(t, 4, strings.Count(got, "class=\"unit\""))
		assert.Equal(t, 3, strings.Count(got, "Beer"))
	})

	t.Run("Receipt page for unknown checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/receipt/checkout_unknown", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Receipt], *Service, *mytime.MockNower) {
	c := context.TODO()
	receiptStore, _, _ := mystore.New[Receipt](c)
	nower := mytime.NewMockNower(ctrl)

	service := NewService(receiptStore, nower)
	sut := NewWebService(service)
	router := mux.NewRouter()

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, receiptStore, service, nower
}
