package catalog

import (
	"context"

	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

type Service struct {
	productStore mystore.Store[catalogapi.Product]
	statusStore  mystore.Store[catalogStatus]
	publisher    mypublisher.Publisher
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// NewStatusStore creates the store that holds the single catalog revision record.
func NewStatusStore(c context.Context) (mystore.Store[catalogStatus], func(), error) {
	return mystore.New[catalogStatus](c)
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(productStore mystore.Store[catalogapi.Product], statusStore mystore.Store[catalogStatus], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *Service {
	return &Service{
		productStore: productStore,
		statusStore:  statusStore,
		publisher:    publisher,
		nower:        nower,
		uuider:       uuider,
		logger:       mylog.New("catalog"),
	}
}
