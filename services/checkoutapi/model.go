package checkoutapi

import (
	"github.com/shopspring/decimal"
)

const Currency = "ARS"

// OrderIntent is the order as handed over to a payment provider: the
// selected lines plus the grand total, correlated with the shopper session.
type OrderIntent struct {
	CheckoutUID string
	SessionUID  string
	Title       string
	Lines       []OrderLine
	TotalAmount decimal.Decimal
}

type OrderLine struct {
	ProductUID string
	Name       string
	Price      decimal.Decimal
	Quantity   int
}

// UnitCount is the number of individual units across all lines. The receipt
// printer produces one fragment per unit.
func (i OrderIntent) UnitCount() int {
	count := 0
	for _, line := range i.Lines {
		count += line.Quantity
	}
	return count
}

func (i OrderIntent) TotalInCurrency() string {
	return "$" + i.TotalAmount.StringFixed(2)
}

// PayableReference is what a provider returns for an order intent. At least
// one of PaymentLink, QRPayload or Deeplink must be set for the reference
// to be presentable to the shopper.
type PayableReference struct {
	Provider    string
	PaymentID   string
	PaymentLink string
	QRPayload   string
	Deeplink    string
}

func (p PayableReference) IsPresentable() bool {
	return p.PaymentLink != "" || p.QRPayload != "" || p.Deeplink != ""
}

type OutcomeStatus string

const (
	OutcomeApproved OutcomeStatus = "approved"
	OutcomePending  OutcomeStatus = "pending"
	OutcomeRejected OutcomeStatus = "rejected"
)

// OutcomeFromExternal normalizes the status vocabulary used by providers on
// their redirect and webhook legs. Providers report failures as "failure"
// or "rejected" interchangeably.
func OutcomeFromExternal(status string) (OutcomeStatus, bool) {
	switch status {
	case "approved":
		return OutcomeApproved, true
	case "pending", "in_process":
		return OutcomePending, true
	case "failure", "rejected":
		return OutcomeRejected, true
	default:
		return "", false
	}
}
