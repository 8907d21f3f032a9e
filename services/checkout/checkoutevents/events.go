package checkoutevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myevents"
)

const (
	TopicName             = "checkout"
	checkoutStartedName   = TopicName + ".started"
	checkoutSettledName   = TopicName + ".settled"
	checkoutCancelledName = TopicName + ".cancelled"
)

type CheckoutEventService interface {
	Subscribe(c context.Context) error
	OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error
	OnCheckoutSettled(c context.Context, topic string, event CheckoutSettled) error
	OnCheckoutCancelled(c context.Context, topic string, event CheckoutCancelled) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CheckoutEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case checkoutStartedName:
		{
			event := CheckoutStarted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutStarted(c, envelope.Topic, event)
		}
	case checkoutSettledName:
		{
			event := CheckoutSettled{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutSettled(c, envelope.Topic, event)
		}
	case checkoutCancelledName:
		{
			event := CheckoutCancelled{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCheckoutCancelled(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("%s", envelope.EventTypeName))
	}
}

type CheckoutStarted struct {
	CheckoutUID string
	SessionUID  string
	Provider    string
	TotalAmount string
}

func (e CheckoutStarted) GetEventTypeName() string {
	return checkoutStartedName
}

func (e CheckoutStarted) GetAggregateName() string {
	return e.CheckoutUID
}

// CheckoutSettled is published exactly once per checkout, no matter how many
// of the outcome sources (webhook, redirect, manual) reported it.
type CheckoutSettled struct {
	CheckoutUID string
	SessionUID  string
	Status      string
	PaymentID   string
	Source      string
}

func (e CheckoutSettled) GetEventTypeName() string {
	return checkoutSettledName
}

func (e CheckoutSettled) GetAggregateName() string {
	return e.CheckoutUID
}

type CheckoutCancelled struct {
	CheckoutUID string
	SessionUID  string
}

func (e CheckoutCancelled) GetEventTypeName() string {
	return checkoutCancelledName
}

func (e CheckoutCancelled) GetAggregateName() string {
	return e.CheckoutUID
}
