package checkout

import (
	"time"

	"github.com/thepointbar/posbackend/services/checkoutapi"
)

type checkoutState string

const (
	// stateAwaitingOutcome means a payable has been handed to the shopper
	// and we are waiting for one of the outcome sources to report back.
	stateAwaitingOutcome checkoutState = "awaitingOutcome"
	stateSettled         checkoutState = "settled"
	stateCancelled       checkoutState = "cancelled"
)

const (
	sourceWebhook  = "webhook"
	sourceRedirect = "redirect"
	sourceManual   = "manual"
)

type Checkout struct {
	UID          string
	SessionUID   string
	CreatedAt    time.Time
	LastModified *time.Time
	State        checkoutState
	Provider     string
	Intent       checkoutapi.OrderIntent
	Payables     []checkoutapi.PayableReference
	Outcome      checkoutapi.OutcomeStatus
	PaymentID    string
	Source       string
	Done         bool
}

func (ch Checkout) payableFor(provider string) (checkoutapi.PayableReference, bool) {
	for _, payable := range ch.Payables {
		if payable.Provider == provider {
			return payable, true
		}
	}
	return checkoutapi.PayableReference{}, false
}

func (ch Checkout) currentPayable() checkoutapi.PayableReference {
	payable, _ := ch.payableFor(ch.Provider)
	return payable
}
