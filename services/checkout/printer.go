package checkout

import (
	"context"

	"github.com/thepointbar/posbackend/services/checkoutapi"
)

//go:generate mockgen -source=printer.go -package checkout -destination printer_mock.go Printer

// Printer produces the receipt for an approved checkout. A failing printer
// must never block settlement.
type Printer interface {
	Print(c context.Context, checkoutUID string, intent checkoutapi.OrderIntent, paymentID string) error
}
