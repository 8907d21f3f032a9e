package receipt

import (
	"time"

	"github.com/thepointbar/posbackend/services/checkoutapi"
)

// Receipt is the printable trail of an approved checkout. It carries one
// unit per individual item sold: an order with 3 beers yields 3 units, each
// printed as its own fragment to be torn off and exchanged at the bar.
type Receipt struct {
	CheckoutUID string
	PaymentID   string
	CreatedAt   time.Time
	Total       string
	Units       []Unit
}

type Unit struct {
	ProductName string
	Price       string
}

func newReceipt(checkoutUID string, intent checkoutapi.OrderIntent, paymentID string, createdAt time.Time) Receipt {
	units := make([]Unit, 0, intent.UnitCount())
	for _, line := range intent.Lines {
		for i := 0; i < line.Quantity; i++ {
			units = append(units, Unit{
				ProductName: line.Name,
				Price:       "$" + line.Price.StringFixed(2),
			})
		}
	}

	return Receipt{
		CheckoutUID: checkoutUID,
		PaymentID:   paymentID,
		CreatedAt:   createdAt,
		Total:       intent.TotalInCurrency(),
		Units:       units,
	}
}
