package push

import (
	"context"
	"fmt"

	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/services/catalog/catalogevents"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
)

type service struct {
	hub        *Hub
	subscriber mypubsub.PubSub
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(hub *Hub, subscriber mypubsub.PubSub, logger mylog.Logger) *service {
	return &service{
		hub:        hub,
		subscriber: subscriber,
		logger:     logger,
	}
}

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/push/checkout/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, catalogevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/push/catalog/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", catalogevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

// OnCheckoutSettled delivers the payment outcome to the shopper's browser.
func (s *service) OnCheckoutSettled(c context.Context, topic string, event checkoutevents.CheckoutSettled) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Pushing %s outcome of checkout %s to session %s", event.Status, event.CheckoutUID, event.SessionUID)

	s.hub.notifySession(c, event.SessionUID, frame{
		Type:        frameTypePaymentOutcome,
		Status:      event.Status,
		PaymentID:   event.PaymentID,
		CheckoutUID: event.CheckoutUID,
	})

	return nil
}

func (s *service) OnCheckoutCancelled(c context.Context, topic string, event checkoutevents.CheckoutCancelled) error {
	return nil
}

// OnCatalogChanged makes all connected shop pages reload the assortment.
func (s *service) OnCatalogChanged(c context.Context, topic string, event catalogevents.CatalogChanged) error {
	s.hub.broadcast(c, frame{
		Type: frameTypeCatalogChanged,
	})

	return nil
}
