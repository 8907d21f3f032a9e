package checkout

import (
	"context"
	"fmt"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const orderTitle = "The Point Bar"

// startCheckout freezes the current cart selection into an order intent and
// asks the chosen provider for a payable. When the provider is down, nothing
// is stored and the cart is left untouched.
func (s *service) startCheckout(c context.Context, sessionUID string, providerName string) (Checkout, error) {
	payer, found := s.payers[providerName]
	if !found {
		return Checkout{}, myerrors.NewInvalidInputErrorf("unknown payment provider %s", providerName)
	}

	lines, total, err := s.cart.Selection(c, sessionUID)
	if err != nil {
		return Checkout{}, err
	}
	if len(lines) == 0 {
		return Checkout{}, myerrors.NewInvalidInputErrorf("cart of session %s is empty", sessionUID)
	}

	checkoutUID := s.uuider.Create()
	createdAt := s.nower.Now()

	intent := checkoutapi.OrderIntent{
		CheckoutUID: checkoutUID,
		SessionUID:  sessionUID,
		Title:       orderTitle,
		Lines:       lines,
		TotalAmount: total,
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Starting checkout %s for session %s via %s (%s)", checkoutUID, sessionUID, providerName, intent.TotalInCurrency())

	payable, err := s.requestPayable(c, payer, intent)
	if err != nil {
		return Checkout{}, err
	}

	checkout := Checkout{
		UID:        checkoutUID,
		SessionUID: sessionUID,
		CreatedAt:  createdAt,
		State:      stateAwaitingOutcome,
		Provider:   providerName,
		Intent:     intent,
		Payables:   []checkoutapi.PayableReference{payable},
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		err := s.checkoutStore.Put(c, checkoutUID, checkout)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			CheckoutUID: checkoutUID,
			SessionUID:  sessionUID,
			Provider:    providerName,
			TotalAmount: total.StringFixed(2),
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Checkout{}, err
	}

	return checkout, nil
}

func (s *service) getCheckout(c context.Context, checkoutUID string) (Checkout, error) {
	checkout, found, err := s.checkoutStore.Get(c, checkoutUID)
	if err != nil {
		return Checkout{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Checkout{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
	}

	return checkout, nil
}

// switchProvider requests a payable from another provider for the same order
// intent. Payables already requested are kept, so switching back is free.
func (s *service) switchProvider(c context.Context, checkoutUID string, providerName string) (Checkout, error) {
	payer, found := s.payers[providerName]
	if !found {
		return Checkout{}, myerrors.NewInvalidInputErrorf("unknown payment provider %s", providerName)
	}

	checkout, err := s.getCheckout(c, checkoutUID)
	if err != nil {
		return Checkout{}, err
	}
	if checkout.Done {
		return Checkout{}, myerrors.NewInvalidInputErrorf("checkout %s is already finalized", checkoutUID)
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Switching checkout %s to provider %s", checkoutUID, providerName)

	_, cached := checkout.payableFor(providerName)
	var payable checkoutapi.PayableReference
	if !cached {
		payable, err = s.requestPayable(c, payer, checkout.Intent)
		if err != nil {
			return Checkout{}, err
		}
	}

	now := s.nower.Now()

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		checkout, err = s.getCheckout(c, checkoutUID)
		if err != nil {
			return err
		}

		if _, exists := checkout.payableFor(providerName); !exists {
			checkout.Payables = append(checkout.Payables, payable)
		}
		checkout.Provider = providerName
		checkout.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkout)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Checkout{}, err
	}

	return checkout, nil
}

func (s *service) requestPayable(c context.Context, payer checkoutapi.Payer, intent checkoutapi.OrderIntent) (checkoutapi.PayableReference, error) {
	payable, err := payer.RequestPayable(c, intent)
	if err != nil {
		return checkoutapi.PayableReference{}, myerrors.NewUnavailableError(fmt.Errorf("provider %s unavailable: %s", payer.Name(), err))
	}
	if !payable.IsPresentable() {
		return checkoutapi.PayableReference{}, myerrors.NewUnavailableError(fmt.Errorf("provider %s returned nothing to present", payer.Name()))
	}

	return payable, nil
}

// settle is the single entry point for all three outcome sources: the
// provider webhook, the redirect leg and the manual trigger. The first
// report wins, later reports of the same checkout are absorbed silently.
func (s *service) settle(c context.Context, checkoutUID string, source string, status checkoutapi.OutcomeStatus, paymentID string) (Checkout, error) {
	now := s.nower.Now()

	var checkout Checkout
	var settledNow bool
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		settledNow = false

		var err error
		checkout, err = s.getCheckout(c, checkoutUID)
		if err != nil {
			return err
		}

		if checkout.Done {
			s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Checkout %s already finalized (%s via %s), ignoring %s report from %s", checkoutUID, checkout.Outcome, checkout.Source, status, source)
			return nil
		}

		if paymentID == "" {
			paymentID = checkout.currentPayable().PaymentID
		}

		checkout.State = stateSettled
		checkout.Outcome = status
		checkout.PaymentID = paymentID
		checkout.Source = source
		checkout.Done = true
		checkout.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkout)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutSettled{
			CheckoutUID: checkoutUID,
			SessionUID:  checkout.SessionUID,
			Status:      string(status),
			PaymentID:   paymentID,
			Source:      source,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		settledNow = true
		return nil
	})
	if err != nil {
		return Checkout{}, err
	}

	if settledNow {
		s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Checkout %s settled as %s via %s (payment %s)", checkoutUID, status, source, checkout.PaymentID)
	}

	if settledNow && status == checkoutapi.OutcomeApproved {
		err = s.printer.Print(c, checkoutUID, checkout.Intent, checkout.PaymentID)
		if err != nil {
			// a blocked printer must never fail the settlement
			s.logger.Log(c, checkoutUID, mylog.SeverityWarn, "Printing receipt for checkout %s failed: %s", checkoutUID, err)
		}
	}

	return checkout, nil
}

func (s *service) cancel(c context.Context, checkoutUID string) (Checkout, error) {
	now := s.nower.Now()

	var checkout Checkout
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		var err error
		checkout, err = s.getCheckout(c, checkoutUID)
		if err != nil {
			return err
		}

		if checkout.Done {
			return nil
		}

		checkout.State = stateCancelled
		checkout.Done = true
		checkout.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkout)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCancelled{
			CheckoutUID: checkoutUID,
			SessionUID:  checkout.SessionUID,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Checkout{}, err
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Checkout %s cancelled by shopper", checkoutUID)

	return checkout, nil
}
