package admin

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/thepointbar/posbackend/lib/mycontext"
	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/catalogapi"
)

const adminCookieName = "pos_admin"

// CatalogAPI is the view on the catalog that the admin needs.
type CatalogAPI interface {
	ListProducts(c context.Context) ([]catalogapi.Product, error)
	GetProduct(c context.Context, productUID string) (catalogapi.Product, error)
	CreateProduct(c context.Context, data catalogapi.ProductData) (catalogapi.Product, error)
	UpdateProduct(c context.Context, productUID string, data catalogapi.ProductData) (catalogapi.Product, error)
	DeleteProduct(c context.Context, productUID string) error
}

type adminSession struct {
	UID       string
	Username  string
	CreatedAt time.Time
}

// NewSessionStore creates the store that tracks logged-in admin sessions.
func NewSessionStore(c context.Context) (mystore.Store[adminSession], func(), error) {
	return mystore.New[adminSession](c)
}

//go:embed templates
var templateFolder embed.FS
var (
	loginPageTemplate    *template.Template
	overviewPageTemplate *template.Template
	editPageTemplate     *template.Template
	confirmPageTemplate  *template.Template
)

func init() {
	loginPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/login.html"))
	overviewPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/overview.html"))
	editPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/edit.html"))
	confirmPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/confirm_delete.html"))
}

type webService struct {
	catalog       CatalogAPI
	authenticator Authenticator
	sessionStore  mystore.Store[adminSession]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(catalog CatalogAPI, authenticator Authenticator, sessionStore mystore.Store[adminSession], nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	return &webService{
		catalog:       catalog,
		authenticator: authenticator,
		sessionStore:  sessionStore,
		nower:         nower,
		uuider:        uuider,
		logger:        mylog.New("admin"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/admin/login", s.loginPage()).Methods("GET")
	router.HandleFunc("/admin/login", s.loginSubmit()).Methods("POST")
	router.HandleFunc("/admin/logout", s.logoutSubmit()).Methods("POST")

	router.HandleFunc("/admin", s.overviewPage()).Methods("GET")
	router.HandleFunc("/admin/products", s.createProductSubmit()).Methods("POST")
	router.HandleFunc("/admin/products/{productUID}/edit", s.editProductPage()).Methods("GET")
	router.HandleFunc("/admin/products/{productUID}", s.updateProductSubmit()).Methods("POST")
	router.HandleFunc("/admin/products/{productUID}/delete", s.confirmDeletePage()).Methods("GET")
	router.HandleFunc("/admin/products/{productUID}/delete", s.deleteProductSubmit()).Methods("POST")

	return nil
}

type loginPageData struct {
	Failed bool
}

func (s *webService) loginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderLoginPage(w, http.StatusOK, loginPageData{})
	}
}

func (s *webService) loginSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		username := r.FormValue("username")
		if !s.authenticator.Authenticate(username, r.FormValue("password")) {
			s.logger.Log(c, "", mylog.SeverityWarn, "Rejected admin login attempt for %q", username)
			s.renderLoginPage(w, http.StatusForbidden, loginPageData{Failed: true})
			return
		}

		session := adminSession{
			UID:       s.uuider.Create(),
			Username:  username,
			CreatedAt: s.nower.Now(),
		}
		err = s.sessionStore.Put(c, session.UID, session)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}

		s.logger.Log(c, session.UID, mylog.SeverityInfo, "Admin %s logged in", username)

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    session.UID,
			Path:     "/admin",
			HttpOnly: true,
		})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func (s *webService) logoutSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			s.sessionStore.Remove(c, cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:   adminCookieName,
			Value:  "",
			Path:   "/admin",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	}
}

type overviewPageData struct {
	Products []catalogapi.Product
}

func (s *webService) overviewPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		products, err := s.catalog.ListProducts(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = overviewPageTemplate.Execute(w, overviewPageData{Products: products})
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) createProductSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		data, err := catalogapi.NewProductDataFromForm(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		_, err = s.catalog.CreateProduct(c, data)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func (s *webService) editProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		productUID := mux.Vars(r)["productUID"]

		product, err := s.catalog.GetProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = editPageTemplate.Execute(w, product)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) updateProductSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		productUID := mux.Vars(r)["productUID"]

		data, err := catalogapi.NewProductDataFromForm(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		_, err = s.catalog.UpdateProduct(c, productUID, data)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// confirmDeletePage asks before anything is removed, a fat finger on the
// venue tablet should not empty the menu.
func (s *webService) confirmDeletePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		productUID := mux.Vars(r)["productUID"]

		product, err := s.catalog.GetProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = confirmPageTemplate.Execute(w, product)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) deleteProductSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		if !s.requireSession(c, w, r) {
			return
		}

		productUID := mux.Vars(r)["productUID"]

		err := s.catalog.DeleteProduct(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func (s *webService) requireSession(c context.Context, w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return false
	}

	_, found, err := s.sessionStore.Get(c, cookie.Value)
	if err != nil || !found {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return false
	}

	return true
}

func (s *webService) renderLoginPage(w http.ResponseWriter, httpStatus int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(httpStatus)
	err := loginPageTemplate.Execute(w, data)
	if err != nil {
		fmt.Fprintf(w, "error rendering login page: %s", err)
	}
}
