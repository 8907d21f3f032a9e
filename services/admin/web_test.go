package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

type fakeCatalog struct {
	products    []catalogapi.Product
	created     []catalogapi.ProductData
	deletedUIDs []string
}

func (f *fakeCatalog) ListProducts(c context.Context) ([]catalogapi.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) GetProduct(c context.Context, productUID string) (catalogapi.Product, error) {
	for _, p := range f.products {
		if p.UID == productUID {
			return p, nil
		}
	}
	return catalogapi.Product{}, nil
}

func (f *fakeCatalog) CreateProduct(c context.Context, data catalogapi.ProductData) (catalogapi.Product, error) {
	f.created = append(f.created, data)
	return catalogapi.Product{UID: "prod_new"}, nil
}

func (f *fakeCatalog) UpdateProduct(c context.Context, productUID string, data catalogapi.ProductData) (catalogapi.Product, error) {
	return catalogapi.Product{UID: productUID}, nil
}

func (f *fakeCatalog) DeleteProduct(c context.Context, productUID string) error {
	f.deletedUIDs = append(f.deletedUIDs, productUID)
	return nil
}

func TestAdminService(t *testing.T) {

	t.Run("Login page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/admin/login", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "form")
	})

	t.Run("Login with wrong credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, authenticator, _ := setup(t, ctrl)

		// given
		authenticator.EXPECT().Authenticate("admin", "wrong").Return(false)

		// when
		response := submitForm(t, router, "/admin/login", "username=admin&password=wrong", "")

		// then
		assert.Equal(t, 403, response.Code)
		assert.Contains(t, response.Body.String(), "incorrectos")
	})

	t.Run("Login with valid credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, _, sessionStore, authenticator, deps := setup(t, ctrl)

		// given
		authenticator.EXPECT().Authenticate("admin", "secret").Return(true)
		deps.uuider.EXPECT().Create().Return("adm_session_1")
		deps.nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		response := submitForm(t, router, "/admin/login", "username=admin&password=secret", "")

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "/admin", response.Header().Get("Location"))
		assert.Contains(t, response.Header().Get("Set-Cookie"), adminCookieName+"=adm_session_1")
		_, exists, _ := sessionStore.Get(ctx, "adm_session_1")
		assert.True(t, exists)
	})

	t.Run("Overview without session redirects to login", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/admin", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "/admin/login", response.Header().Get("Location"))
	})

	t.Run("Overview lists products", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, catalog, sessionStore, _, _ := setup(t, ctrl)

		// given
		sessionStore.Put(ctx, "adm_session_1", adminSession{UID: "adm_session_1", Username: "admin", CreatedAt: mytime.ExampleTime})
		catalog.products = []catalogapi.Product{
			{UID: "prod_beer", Name: "Beer", Price: decimal.NewFromInt(1500)},
		}

		// when
		request, err := http.NewRequest(http.MethodGet, "/admin", nil)
		assert.NoError(t, err)
		request.AddCookie(&http.Cookie{Name: adminCookieName, Value: "adm_session_1"})
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "Beer")
	})

	t.Run("Create product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, catalog, sessionStore, _, _ := setup(t, ctrl)

		// given
		sessionStore.Put(ctx, "adm_session_1", adminSession{UID: "adm_session_1", Username: "admin", CreatedAt: mytime.ExampleTime})

		// when
		response := submitForm(t, router, "/admin/products", "name=Fernet+cola&price=3000", "adm_session_1")

		// then
		assert.Equal(t, 303, response.Code)
		assert.Len(t, catalog.created, 1)
		assert.Equal(t, "Fernet cola", catalog.created[0].Name)
	})

	t.Run("Delete product asks for confirmation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, catalog, sessionStore, _, _ := setup(t, ctrl)

		// given
		sessionStore.Put(ctx, "adm_session_1", adminSession{UID: "adm_session_1", Username: "admin", CreatedAt: mytime.ExampleTime})
		catalog.products = []catalogapi.Product{
			{UID: "prod_beer", Name: "Beer", Price: decimal.NewFromInt(1500)},
		}

		// when: the confirmation page
		request, err := http.NewRequest(http.MethodGet, "/admin/products/prod_beer/delete", nil)
		assert.NoError(t, err)
		request.AddCookie(&http.Cookie{Name: adminCookieName, Value: "adm_session_1"})
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then: nothing deleted yet
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "Borrar Beer?")
		assert.Empty(t, catalog.deletedUIDs)

		// when: the actual delete
		deleteResponse := submitForm(t, router, "/admin/products/prod_beer/delete", "", "adm_session_1")

		// then
		assert.Equal(t, 303, deleteResponse.Code)
		assert.Equal(t, []string{"prod_beer"}, catalog.deletedUIDs)
	})
}

func TestStaticAuthenticator(t *testing.T) {

	t.Run("Valid credentials", func(t *testing.T) {
		authenticator := NewStaticAuthenticator("admin", "secret")
		assert.True(t, authenticator.Authenticate("admin", "secret"))
	})

	t.Run("Wrong password", func(t *testing.T) {
		authenticator := NewStaticAuthenticator("admin", "secret")
		assert.False(t, authenticator.Authenticate("admin", "guess"))
	})

	t.Run("Empty configured password locks everyone out", func(t *testing.T) {
		authenticator := NewStaticAuthenticator("admin", "")
		assert.False(t, authenticator.Authenticate("admin", ""))
	})
}

type adminDeps struct {
	nower  *mytime.MockNower
	uuider *myuuid.MockUUIDer
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, *fakeCatalog, mystore.Store[adminSession], *MockAuthenticator, adminDeps) {
	c := context.TODO()
	catalog := &fakeCatalog{}
	sessionStore, _, _ := mystore.New[adminSession](c)
	authenticator := NewMockAuthenticator(ctrl)
	deps := adminDeps{
		nower:  mytime.NewMockNower(ctrl),
		uuider: myuuid.NewMockUUIDer(ctrl),
	}

	sut := NewWebService(catalog, authenticator, sessionStore, deps.nower, deps.uuider)
	router := mux.NewRouter()

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, catalog, sessionStore, authenticator, deps
}

func submitForm(t *testing.T, router *mux.Router, path string, form string, sessionUID string) *httptest.ResponseRecorder {
	request, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form))
	assert.NoError(t, err)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionUID != "" {
		request.AddCookie(&http.Cookie{Name: adminCookieName, Value: sessionUID})
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	return response
}
