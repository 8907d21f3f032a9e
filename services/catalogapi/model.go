package catalogapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	formcodec "github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"

	"github.com/thepointbar/posbackend/lib/myerrors"
)

// Product is owned by the catalog service. Shoppers only ever read it;
// mutations go through the admin endpoints.
type Product struct {
	UID          string
	Name         string
	Price        decimal.Decimal
	ImageURL     string
	CreatedAt    time.Time
	LastModified *time.Time
}

func (p Product) PriceInCurrency() string {
	return "$" + p.Price.StringFixed(2)
}

// ProductData is the mutable part of a Product as submitted by the admin,
// either as JSON or as an HTML form.
type ProductData struct {
	Name     string `json:"name" form:"name"`
	Price    string `json:"price" form:"price"`
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}

func (pd ProductData) Validate() (string, decimal.Decimal, string, error) {
	name := strings.TrimSpace(pd.Name)
	if name == "" {
		return "", decimal.Decimal{}, "", myerrors.NewInvalidInputErrorf("missing product name")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(pd.Price))
	if err != nil {
		return "", decimal.Decimal{}, "", myerrors.NewInvalidInputError(fmt.Errorf("invalid price %q: %s", pd.Price, err))
	}
	if price.IsNegative() {
		return "", decimal.Decimal{}, "", myerrors.NewInvalidInputErrorf("price must not be negative")
	}

	return name, price, strings.TrimSpace(pd.ImageURL), nil
}

func NewProductDataFromForm(r *http.Request) (ProductData, error) {
	err := r.ParseForm()
	if err != nil {
		return ProductData{}, myerrors.NewInvalidInputError(err)
	}

	data := ProductData{}
	err = formcodec.NewDecoder().Decode(&data, r.Form)
	if err != nil {
		return ProductData{}, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return data, nil
}
