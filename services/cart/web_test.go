package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gorilla/mux"

	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/catalogapi"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
)

type fakeCatalog struct {
	products []catalogapi.Product
	revision int64
}

func (f *fakeCatalog) ListProducts(c context.Context) ([]catalogapi.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) CurrentRevision(c context.Context) (int64, error) {
	return f.revision, nil
}

func TestCartService(t *testing.T) {

	t.Run("Shop page creates cart for new session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, _, nower, uuider := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		uuider.EXPECT().Create().Return("session_1")

		// when
		request, err := http.NewRequest(http.MethodGet, "/", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "Beer")
		assert.Contains(t, got, "Wine")
		cart, exists, _ := cartStore.Get(ctx, "session_1")
		assert.True(t, exists)
		assert.Len(t, cart.Lines, 2)
	})

	t.Run("Shop page re-initializes stale cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, catalog, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		staleCart := newCart("session_1", 1, catalog.products, mytime.ExampleTime)
		staleCart.increment("prod_beer")
		cartStore.Put(ctx, staleCart.SessionUID, staleCart)
		catalog.revision = 2

		// when
		request, err := http.NewRequest(http.MethodGet, "/", nil)
		assert.NoError(t, err)
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session_1"})
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		cart, _, _ := cartStore.Get(ctx, "session_1")
		assert.Equal(t, int64(2), cart.CatalogRevision)
		assert.False(t, cart.hasSelection())
	})

	t.Run("Increment product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, catalog, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		existing := newCart("session_1", 1, catalog.products, mytime.ExampleTime)
		cartStore.Put(ctx, existing.SessionUID, existing)

		// when
		request, err := http.NewRequest(http.MethodPost, "/cart/prod_beer/increment", nil)
		assert.NoError(t, err)
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session_1"})
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		cart, _, _ := cartStore.Get(ctx, "session_1")
		assert.Equal(t, 1, cart.Lines[0].Quantity)
	})

	t.Run("Unknown cart operation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, catalog, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		existing := newCart("session_1", 1, catalog.products, mytime.ExampleTime)
		cartStore.Put(ctx, existing.SessionUID, existing)

		// when
		request, err := http.NewRequest(http.MethodPost, "/cart/prod_beer/duplicate", nil)
		assert.NoError(t, err)
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session_1"})
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Approved checkout resets cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, catalog, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		existing := newCart("session_1", 1, catalog.products, mytime.ExampleTime)
		existing.increment("prod_beer")
		cartStore.Put(ctx, existing.SessionUID, existing)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/cart/event", strings.NewReader(mypublisher.CreatePubsubMessage(
			checkoutevents.TopicName,
			checkoutevents.CheckoutSettled{
				CheckoutUID: "checkout_1",
				SessionUID:  "session_1",
				Status:      "approved",
				PaymentID:   "pay_123",
				Source:      "webhook",
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		cart, _, _ := cartStore.Get(ctx, "session_1")
		assert.False(t, cart.hasSelection())
	})

	t.Run("Rejected checkout keeps cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, cartStore, catalog, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		existing := newCart("session_1", 1, catalog.products, mytime.ExampleTime)
		existing.increment("prod_beer")
		cartStore.Put(ctx, existing.SessionUID, existing)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/cart/event", strings.NewReader(mypublisher.CreatePubsubMessage(
			checkoutevents.TopicName,
			checkoutevents.CheckoutSettled{
				CheckoutUID: "checkout_1",
				SessionUID:  "session_1",
				Status:      "rejected",
				PaymentID:   "pay_123",
				Source:      "redirect",
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		cart, _, _ := cartStore.Get(ctx, "session_1")
		assert.True(t, cart.hasSelection())
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Cart], *fakeCatalog, *mytime.MockNower, *myuuid.MockUUIDer) {
	c := context.TODO()
	cartStore, _, _ := mystore.New[Cart](c)
	catalog := &fakeCatalog{
		products: []catalogapi.Product{
			{UID: "prod_beer", Name: "Beer", Price: decimal.NewFromInt(1500)},
			{UID: "prod_wine", Name: "Wine", Price: decimal.NewFromInt(2500)},
		},
		revision: 1,
	}
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)

	sut := NewWebService(NewService(cartStore, catalog, subscriber, nower, uuider), []string{"qr", "modo"})
	router := mux.NewRouter()

	// This is called by the following call to RegisterEndpoints()
	subscriber.EXPECT().Subscribe(c, checkoutevents.TopicName, "http://localhost:8080/api/cart/event").Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, cartStore, catalog, nower, uuider
}
