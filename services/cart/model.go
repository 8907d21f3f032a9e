package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/thepointbar/posbackend/services/catalogapi"
)

// Cart holds one quantity per catalog product for a single shopper session.
// A product is considered selected when its quantity is above zero.
type Cart struct {
	SessionUID      string
	CatalogRevision int64
	Lines           []Line
	CreatedAt       time.Time
	LastModified    *time.Time
}

type Line struct {
	ProductUID string
	Name       string
	Price      decimal.Decimal
	ImageURL   string
	Quantity   int
}

func (l Line) PriceInCurrency() string {
	return "$" + l.Price.StringFixed(2)
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) SubtotalInCurrency() string {
	return "$" + l.Subtotal().StringFixed(2)
}

func newCart(sessionUID string, revision int64, products []catalogapi.Product, createdAt time.Time) Cart {
	cart := Cart{
		SessionUID: sessionUID,
		CreatedAt:  createdAt,
	}
	cart.reinitialize(revision, products)

	return cart
}

// reinitialize rebuilds the lines against the given assortment. All
// quantities start at zero, also when the previous lines had a selection.
func (cart *Cart) reinitialize(revision int64, products []catalogapi.Product) {
	lines := make([]Line, 0, len(products))
	for _, p := range products {
		lines = append(lines, Line{
			ProductUID: p.UID,
			Name:       p.Name,
			Price:      p.Price,
			ImageURL:   p.ImageURL,
			Quantity:   0,
		})
	}

	cart.CatalogRevision = revision
	cart.Lines = lines
}

func (cart *Cart) increment(productUID string) {
	for i, line := range cart.Lines {
		if line.ProductUID == productUID {
			cart.Lines[i].Quantity++
			return
		}
	}
}

// decrement never takes a quantity below zero.
func (cart *Cart) decrement(productUID string) {
	for i, line := range cart.Lines {
		if line.ProductUID == productUID {
			if cart.Lines[i].Quantity > 0 {
				cart.Lines[i].Quantity--
			}
			return
		}
	}
}

func (cart *Cart) remove(productUID string) {
	for i, line := range cart.Lines {
		if line.ProductUID == productUID {
			cart.Lines[i].Quantity = 0
			return
		}
	}
}

func (cart *Cart) reset() {
	for i := range cart.Lines {
		cart.Lines[i].Quantity = 0
	}
}

func (cart Cart) selectedLines() []Line {
	selected := []Line{}
	for _, line := range cart.Lines {
		if line.Quantity > 0 {
			selected = append(selected, line)
		}
	}
	return selected
}

func (cart Cart) totalQuantity() int {
	total := 0
	for _, line := range cart.Lines {
		total += line.Quantity
	}
	return total
}

func (cart Cart) totalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range cart.selectedLines() {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (cart Cart) hasSelection() bool {
	return len(cart.selectedLines()) > 0
}
