package mypubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/thepointbar/posbackend/lib/myevents"
	"github.com/thepointbar/posbackend/lib/myhttpclient"
)

// fakePubSub keeps subscriptions in memory and delivers published messages
// to the subscriber urls over HTTP, in the same push shape a real
// push-subscription uses. Subscribers cannot tell the difference.
type fakePubSub struct {
	sender myhttpclient.HTTPSender

	mutex         sync.Mutex
	subscriptions map[string][]string
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakePubSub
	}
}

func newFakePubSub(c context.Context) (PubSub, func(), error) {
	return &fakePubSub{
		sender:        myhttpclient.New(),
		subscriptions: map[string][]string{},
	}, func() {
	}, nil
}

func (q *fakePubSub) CreateTopic(c context.Context, topic string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if _, exists := q.subscriptions[topic]; !exists {
		q.subscriptions[topic] = []string{}
	}

	return nil
}

func (q *fakePubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, url := range q.subscriptions[topic] {
		if url == urlToPostTo {
			return nil
		}
	}
	q.subscriptions[topic] = append(q.subscriptions[topic], urlToPostTo)

	return nil
}

func (q *fakePubSub) Publish(c context.Context, topic string, data string) error {
	q.mutex.Lock()
	urls := append([]string{}, q.subscriptions[topic]...)
	q.mutex.Unlock()

	body, err := json.Marshal(myevents.PushRequest{
		Message: myevents.PushMessage{
			Data: []byte(data),
		},
		Subscription: topic,
	})
	if err != nil {
		return fmt.Errorf("error marshalling push-request for topic %s: %s", topic, err)
	}

	for _, url := range urls {
		status, _, err := q.sender.Send(c, http.MethodPost, url, body)
		if err != nil {
			return fmt.Errorf("error pushing msg on topic %s to %s: %s", topic, url, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("error pushing msg on topic %s to %s: status %d", topic, url, status)
		}
	}

	return nil
}
