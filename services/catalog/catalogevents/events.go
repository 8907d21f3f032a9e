package catalogevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myevents"
)

const (
	TopicName          = "catalog"
	catalogChangedName = TopicName + ".changed"
)

type CatalogEventService interface {
	Subscribe(c context.Context) error
	OnCatalogChanged(c context.Context, topic string, event CatalogChanged) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CatalogEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case catalogChangedName:
		{
			event := CatalogChanged{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnCatalogChanged(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("%s", envelope.EventTypeName))
	}
}

// CatalogChanged tells subscribers that the assortment is stale. Carts built
// against an older revision must re-initialize against the current one.
type CatalogChanged struct {
	ProductUID string
	Revision   int64
}

func (e CatalogChanged) GetEventTypeName() string {
	return catalogChangedName
}

func (e CatalogChanged) GetAggregateName() string {
	return e.ProductUID
}
