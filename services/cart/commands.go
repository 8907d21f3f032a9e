package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

// getCart returns the cart for the session, creating it when the shopper is
// new and rebuilding its lines when the assortment changed underneath it.
func (s *Service) getCart(c context.Context, sessionUID string) (Cart, error) {
	revision, err := s.catalog.CurrentRevision(c)
	if err != nil {
		return Cart{}, err
	}

	products, err := s.catalog.ListProducts(c)
	if err != nil {
		return Cart{}, err
	}

	now := s.nower.Now()

	var cart Cart
	err = s.cartStore.RunInTransaction(c, func(c context.Context) error {
		existing, found, err := s.cartStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if !found {
			cart = newCart(sessionUID, revision, products, now)
		} else {
			cart = existing
			if cart.CatalogRevision != revision {
				s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Assortment changed (revision %d -> %d), re-initializing cart of session %s", cart.CatalogRevision, revision, sessionUID)
				cart.reinitialize(revision, products)
				cart.LastModified = &now
			}
		}

		err = s.cartStore.Put(c, sessionUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Cart{}, err
	}

	return cart, nil
}

func (s *Service) adjustQuantity(c context.Context, sessionUID string, productUID string, operation string) error {
	now := s.nower.Now()

	return s.cartStore.RunInTransaction(c, func(c context.Context) error {
		cart, found, err := s.cartStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("cart for session %s not found", sessionUID))
		}

		switch operation {
		case "increment":
			cart.increment(productUID)
		case "decrement":
			cart.decrement(productUID)
		case "remove":
			cart.remove(productUID)
		default:
			return myerrors.NewInvalidInputErrorf("unknown cart operation %s", operation)
		}
		cart.LastModified = &now

		err = s.cartStore.Put(c, sessionUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}

// Selection is used by the checkout to turn the cart into an order intent.
func (s *Service) Selection(c context.Context, sessionUID string) ([]checkoutapi.OrderLine, decimal.Decimal, error) {
	cart, found, err := s.cartStore.Get(c, sessionUID)
	if err != nil {
		return nil, decimal.Zero, myerrors.NewInternalError(err)
	}
	if !found {
		return nil, decimal.Zero, myerrors.NewNotFoundError(fmt.Errorf("cart for session %s not found", sessionUID))
	}

	lines := []checkoutapi.OrderLine{}
	for _, line := range cart.selectedLines() {
		lines = append(lines, checkoutapi.OrderLine{
			ProductUID: line.ProductUID,
			Name:       line.Name,
			Price:      line.Price,
			Quantity:   line.Quantity,
		})
	}

	return lines, cart.totalAmount(), nil
}

func (s *Service) resetCart(c context.Context, sessionUID string) error {
	now := s.nower.Now()

	return s.cartStore.RunInTransaction(c, func(c context.Context) error {
		cart, found, err := s.cartStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			// nothing to reset
			return nil
		}

		cart.reset()
		cart.LastModified = &now

		err = s.cartStore.Put(c, sessionUID, cart)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}
