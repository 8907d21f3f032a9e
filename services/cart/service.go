package cart

import (
	"context"

	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

// CatalogAPI is the narrow view on the catalog that the cart needs.
type CatalogAPI interface {
	ListProducts(c context.Context) ([]catalogapi.Product, error)
	CurrentRevision(c context.Context) (int64, error)
}

type Service struct {
	cartStore  mystore.Store[Cart]
	catalog    CatalogAPI
	subscriber mypubsub.PubSub
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(cartStore mystore.Store[Cart], catalog CatalogAPI, subscriber mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer) *Service {
	return &Service{
		cartStore:  cartStore,
		catalog:    catalog,
		subscriber: subscriber,
		nower:      nower,
		uuider:     uuider,
		logger:     mylog.New("cart"),
	}
}
