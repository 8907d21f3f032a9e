package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/thepointbar/posbackend/lib/myevents"
	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/services/catalog/catalogevents"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
)

func TestPushService(t *testing.T) {

	t.Run("Settled checkout is pushed to its session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		hub, server := setup(t, ctrl)
		defer server.Close()

		// given
		conn := connect(t, server, "session_1")
		defer conn.Close()
		assert.Equal(t, 1, hub.connectionCount())

		hello := readFrame(t, conn)
		assert.Equal(t, frameTypeSession, hello.Type)
		assert.Equal(t, "session_1", hello.SessionUID)

		// when
		postEvent(t, server, "/api/push/checkout/event", checkoutevents.TopicName, checkoutevents.CheckoutSettled{
			CheckoutUID: "checkout_1",
			SessionUID:  "session_1",
			Status:      "approved",
			PaymentID:   "pay_123",
			Source:      "webhook",
		})

		// then
		outcome := readFrame(t, conn)
		assert.Equal(t, frameTypePaymentOutcome, outcome.Type)
		assert.Equal(t, "approved", outcome.Status)
		assert.Equal(t, "pay_123", outcome.PaymentID)
		assert.Equal(t, "checkout_1", outcome.CheckoutUID)
	})

	t.Run("Outcome of another session is not delivered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, server := setup(t, ctrl)
		defer server.Close()

		// given
		conn := connect(t, server, "session_1")
		defer conn.Close()
		readFrame(t, conn)

		// when
		postEvent(t, server, "/api/push/checkout/event", checkoutevents.TopicName, checkoutevents.CheckoutSettled{
			CheckoutUID: "checkout_2",
			SessionUID:  "session_other",
			Status:      "approved",
		})

		// then
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, _, err := conn.ReadMessage()
		assert.Error(t, err)
	})

	t.Run("Catalog change is broadcast to all sessions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, server := setup(t, ctrl)
		defer server.Close()

		// given
		conn1 := connect(t, server, "session_1")
		defer conn1.Close()
		conn2 := connect(t, server, "session_2")
		defer conn2.Close()
		readFrame(t, conn1)
		readFrame(t, conn2)

		// when
		postEvent(t, server, "/api/push/catalog/event", catalogevents.TopicName, catalogevents.CatalogChanged{
			ProductUID: "prod_beer",
			Revision:   2,
		})

		// then
		assert.Equal(t, frameTypeCatalogChanged, readFrame(t, conn1).Type)
		assert.Equal(t, frameTypeCatalogChanged, readFrame(t, conn2).Type)
	})

	t.Run("Connect without session is refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, server := setup(t, ctrl)
		defer server.Close()

		// when
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
		_, response, err := websocket.DefaultDialer.Dial(wsURL, nil)

		// then
		assert.Error(t, err)
		assert.Equal(t, 400, response.StatusCode)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (*Hub, *httptest.Server) {
	c := context.TODO()
	hub := NewHub()
	subscriber := mypubsub.NewMockPubSub(ctrl)

	sut := NewWebService(hub, subscriber)
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints()
	subscriber.EXPECT().Subscribe(c, checkoutevents.TopicName, "http://localhost:8080/api/push/checkout/event").Return(nil)
	subscriber.EXPECT().Subscribe(c, catalogevents.TopicName, "http://localhost:8080/api/push/catalog/event").Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return hub, httptest.NewServer(router)
}

func connect(t *testing.T, server *httptest.Server, sessionUID string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", sessionCookieName+"="+sessionUID)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	assert.NoError(t, err)

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	f := frame{}
	err := conn.ReadJSON(&f)
	assert.NoError(t, err)

	return f
}

func postEvent(t *testing.T, server *httptest.Server, path string, topic string, event myevents.Event) {
	body := mypublisher.CreatePubsubMessage(topic, event)

	response, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	assert.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, 200, response.StatusCode)
}
