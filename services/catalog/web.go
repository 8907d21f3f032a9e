package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thepointbar/posbackend/lib/mycontext"
	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/catalog/catalogevents"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

type webService struct {
	service *Service
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(service *Service) *webService {
	return &webService{
		service: service,
		logger:  mylog.New("catalogweb"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// The shop page and the admin both read the assortment through this API
	router.HandleFunc("/api/products", s.listProductsPage()).Methods("GET")
	router.HandleFunc("/api/products/{productUID}", s.getProductPage()).Methods("GET")
	router.HandleFunc("/api/products", s.createProductPage()).Methods("POST")
	router.HandleFunc("/api/products/{productUID}", s.updateProductPage()).Methods("PUT")
	router.HandleFunc("/api/products/{productUID}", s.deleteProductPage()).Methods("DELETE")

	err := s.service.publisher.CreateTopic(c, catalogevents.TopicName)
	if err != nil {
		return err
	}

	return nil
}

type productListResponse struct {
	Products []catalogapi.Product
	Revision int64
}

func (s *webService) listProductsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.service.ListProducts(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		revision, err := s.service.CurrentRevision(c)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, productListResponse{
			Products: products,
			Revision: revision,
		})
	}
}

func (s *webService) getProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		product, err := s.service.GetProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) createProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		data, err := parseProductData(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err := s.service.CreateProduct(c, data)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, product)
	}
}

func (s *webService) updateProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		data, err := parseProductData(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err := s.service.UpdateProduct(c, productUID, data)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) deleteProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		err := s.service.DeleteProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.EmptyResponse{})
	}
}

func parseProductData(r *http.Request) (catalogapi.ProductData, error) {
	data := catalogapi.ProductData{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		return catalogapi.ProductData{}, myerrors.NewInvalidInputError(err)
	}

	return data, nil
}
