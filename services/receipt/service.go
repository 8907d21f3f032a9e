package receipt

import (
	"context"
	"fmt"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

type Service struct {
	receiptStore mystore.Store[Receipt]
	nower        mytime.Nower
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(receiptStore mystore.Store[Receipt], nower mytime.Nower) *Service {
	return &Service{
		receiptStore: receiptStore,
		nower:        nower,
		logger:       mylog.New("receipt"),
	}
}

// Print persists the receipt. Keyed on the checkout uid, printing the same
// checkout twice just overwrites the same receipt.
func (s *Service) Print(c context.Context, checkoutUID string, intent checkoutapi.OrderIntent, paymentID string) error {
	receipt := newReceipt(checkoutUID, intent, paymentID, s.nower.Now())

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Printing receipt for checkout %s: %d units", checkoutUID, len(receipt.Units))

	err := s.receiptStore.Put(c, checkoutUID, receipt)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return nil
}

func (s *Service) getReceipt(c context.Context, checkoutUID string) (Receipt, error) {
	receipt, found, err := s.receiptStore.Get(c, checkoutUID)
	if err != nil {
		return Receipt{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Receipt{}, myerrors.NewNotFoundError(fmt.Errorf("receipt for checkout %s not found", checkoutUID))
	}

	return receipt, nil
}
