package mypublisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/thepointbar/posbackend/lib/myevents"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/lib/myqueue"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
)

type orderPlaced struct {
	OrderUID string
}

func (e orderPlaced) GetEventTypeName() string {
	return "order.placed"
}

func (e orderPlaced) GetAggregateName() string {
	return e.OrderUID
}

func TestTransactionalPublisher(t *testing.T) {

	t.Run("Publish stores envelope and enqueues trigger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, _, pubsubMock, queueMock, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		enqueuedTask := myqueue.Task{}
		queueMock.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, task myqueue.Task) error {
				enqueuedTask = task
				return nil
			})
		pubsubMock.EXPECT().CreateTopic(c, "checkout").Return(nil)

		// when
		err := sut.CreateTopic(c, "checkout")
		assert.NoError(t, err)
		err = sut.Publish(c, "checkout", orderPlaced{OrderUID: "order_123"})

		// then
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(enqueuedTask.WebhookURLPath, "/pubsub/checkout/"))
	})

	t.Run("Trigger drains pending envelope exactly once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, router, pubsubMock, queueMock, nower := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		queueMock.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)
		err := sut.Publish(c, "checkout", orderPlaced{OrderUID: "order_123"})
		assert.NoError(t, err)

		published := []string{}
		pubsubMock.EXPECT().Publish(gomock.Any(), "checkout", gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, data string) error {
				published = append(published, data)
				return nil
			}).Times(1)

		// when: the trigger fires twice, as a retrying task-queue would
		assert.Equal(t, 200, putTrigger(t, router, "/pubsub/checkout/evt_1"))
		assert.Equal(t, 200, putTrigger(t, router, "/pubsub/checkout/evt_1"))

		// then
		assert.Len(t, published, 1)
		assert.Contains(t, published[0], "order.placed")
		assert.Contains(t, published[0], "order_123")
	})

	t.Run("Trigger skips envelopes that were already published", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, router, pubsubMock, _, _ := setup(t, ctrl)
		sut.outbox.Put(c, "evt_old", myevents.EventEnvelope{
			UID:       "evt_old",
			Topic:     "checkout",
			Published: true,
		})
		sut.outbox.Put(c, "evt_new", myevents.EventEnvelope{
			UID:       "evt_new",
			Topic:     "checkout",
			Published: false,
		})

		published := []string{}
		pubsubMock.EXPECT().Publish(gomock.Any(), "checkout", gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, data string) error {
				published = append(published, data)
				return nil
			}).Times(1)

		// when
		assert.Equal(t, 200, putTrigger(t, router, "/pubsub/checkout/evt_new"))

		// then
		assert.Len(t, published, 1)
		assert.Contains(t, published[0], "evt_new")
		envelope, exists, _ := sut.outbox.Get(c, "evt_new")
		assert.True(t, exists)
		assert.True(t, envelope.Published)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *transactionalPublisher, *mux.Router, *mypubsub.MockPubSub, *myqueue.MockTaskQueuer, *mytime.MockNower) {
	c := context.TODO()
	outbox, _, err := mystore.New[myevents.EventEnvelope](c)
	assert.NoError(t, err)
	pubsubMock := mypubsub.NewMockPubSub(ctrl)
	queueMock := myqueue.NewMockTaskQueuer(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut := &transactionalPublisher{
		outbox:    outbox,
		queue:     queueMock,
		enveloper: newEnveloper(nower),
		pubsub:    pubsubMock,
		logger:    mylog.New("publisher"),
	}
	router := mux.NewRouter()
	sut.RegisterEndpoints(c, router)

	return c, sut, router, pubsubMock, queueMock, nower
}

func putTrigger(t *testing.T, router *mux.Router, url string) int {
	request, err := http.NewRequest(http.MethodPut, url, nil)
	assert.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	return response.Code
}
