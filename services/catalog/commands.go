package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/catalog/catalogevents"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

func (s *Service) ListProducts(c context.Context) ([]catalogapi.Product, error) {
	products, err := s.productStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	// TODO sort in database
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})

	return products, nil
}

func (s *Service) GetProduct(c context.Context, productUID string) (catalogapi.Product, error) {
	product, found, err := s.productStore.Get(c, productUID)
	if err != nil {
		return catalogapi.Product{}, myerrors.NewInternalError(err)
	}
	if !found {
		return catalogapi.Product{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
	}

	return product, nil
}

// CurrentRevision tells carts whether their product lines are stale.
func (s *Service) CurrentRevision(c context.Context) (int64, error) {
	status, _, err := s.statusStore.Get(c, catalogStatusUID)
	if err != nil {
		return 0, myerrors.NewInternalError(err)
	}

	return status.Revision, nil
}

func (s *Service) CreateProduct(c context.Context, data catalogapi.ProductData) (catalogapi.Product, error) {
	name, price, imageURL, err := data.Validate()
	if err != nil {
		return catalogapi.Product{}, err
	}

	product := catalogapi.Product{
		UID:       s.uuider.Create(),
		Name:      name,
		Price:     price,
		ImageURL:  imageURL,
		CreatedAt: s.nower.Now(),
	}

	s.logger.Log(c, product.UID, mylog.SeverityInfo, "Creating new product %s (%s)", product.Name, product.UID)

	err = s.upsertAndAnnounce(c, product)
	if err != nil {
		return catalogapi.Product{}, err
	}

	return product, nil
}

func (s *Service) UpdateProduct(c context.Context, productUID string, data catalogapi.ProductData) (catalogapi.Product, error) {
	name, price, imageURL, err := data.Validate()
	if err != nil {
		return catalogapi.Product{}, err
	}

	now := s.nower.Now()

	product, found, err := s.productStore.Get(c, productUID)
	if err != nil {
		return catalogapi.Product{}, myerrors.NewInternalError(err)
	}
	if !found {
		return catalogapi.Product{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
	}

	product.Name = name
	product.Price = price
	product.ImageURL = imageURL
	product.LastModified = &now

	s.logger.Log(c, productUID, mylog.SeverityInfo, "Updating product %s (%s)", product.Name, productUID)

	err = s.upsertAndAnnounce(c, product)
	if err != nil {
		return catalogapi.Product{}, err
	}

	return product, nil
}

func (s *Service) DeleteProduct(c context.Context, productUID string) error {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Deleting product %s", productUID)

	return s.productStore.RunInTransaction(c, func(c context.Context) error {
		_, found, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}

		err = s.productStore.Remove(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return s.bumpRevisionAndPublish(c, productUID)
	})
}

func (s *Service) upsertAndAnnounce(c context.Context, product catalogapi.Product) error {
	return s.productStore.RunInTransaction(c, func(c context.Context) error {
		err := s.productStore.Put(c, product.UID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return s.bumpRevisionAndPublish(c, product.UID)
	})
}

func (s *Service) bumpRevisionAndPublish(c context.Context, productUID string) error {
	status, _, err := s.statusStore.Get(c, catalogStatusUID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	status.UID = catalogStatusUID
	status.Revision++

	err = s.statusStore.Put(c, catalogStatusUID, status)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.CatalogChanged{
		ProductUID: productUID,
		Revision:   status.Revision,
	})
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return nil
}
