package cart

import (
	"context"
	"fmt"

	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

func (s *Service) Subscribe(c context.Context) error {
	err := s.subscriber.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/cart/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *Service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

// OnCheckoutSettled empties the cart on an approved payment so the next
// shopper starts clean. A rejected or pending outcome keeps the selection,
// the shopper can retry with another provider.
func (s *Service) OnCheckoutSettled(c context.Context, topic string, event checkoutevents.CheckoutSettled) error {
	if event.Status != string(checkoutapi.OutcomeApproved) {
		s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s ended in %s, keeping cart of session %s", event.CheckoutUID, event.Status, event.SessionUID)
		return nil
	}

	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s approved, resetting cart of session %s", event.CheckoutUID, event.SessionUID)

	return s.resetCart(c, event.SessionUID)
}

func (s *Service) OnCheckoutCancelled(c context.Context, topic string, event checkoutevents.CheckoutCancelled) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s cancelled, resetting cart of session %s", event.CheckoutUID, event.SessionUID)

	return s.resetCart(c, event.SessionUID)
}
