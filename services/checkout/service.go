package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

// CartAPI is the narrow view on the cart that the checkout needs.
type CartAPI interface {
	Selection(c context.Context, sessionUID string) ([]checkoutapi.OrderLine, decimal.Decimal, error)
}

type service struct {
	checkoutStore mystore.Store[Checkout]
	payers        map[string]checkoutapi.Payer
	cart          CartAPI
	printer       Printer
	publisher     mypublisher.Publisher
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(checkoutStore mystore.Store[Checkout], payers map[string]checkoutapi.Payer, cart CartAPI, printer Printer, publisher mypublisher.Publisher, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		checkoutStore: checkoutStore,
		payers:        payers,
		cart:          cart,
		printer:       printer,
		publisher:     publisher,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
	}
}
