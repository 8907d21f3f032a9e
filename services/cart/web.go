package cart

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/thepointbar/posbackend/lib/mycontext"
	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
)

const sessionCookieName = "pos_session"

//go:embed templates
var templateFolder embed.FS
var (
	shopPageTemplate *template.Template
)

func init() {
	shopPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/shop.html"))
}

type webService struct {
	service   *Service
	providers []string
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(service *Service, providers []string) *webService {
	return &webService{
		service:   service,
		providers: providers,
		logger:    mylog.New("cartweb"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Endpoints that compose the user-interface
	router.HandleFunc("/", s.shopPage()).Methods("GET")
	router.HandleFunc("/cart/{productUID}/{operation}", s.adjustQuantityPage()).Methods("POST")

	// Listen for settled and cancelled checkouts
	router.HandleFunc("/api/cart/event", s.handleEventEnvelope()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

type shopPageData struct {
	SessionUID    string
	Lines         []Line
	Selected      []Line
	TotalQuantity int
	Total         string
	HasSelection  bool
	Providers     []string
}

func (s *webService) shopPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := s.obtainSessionUID(w, r)

		cart, err := s.service.getCart(c, sessionUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = shopPageTemplate.Execute(w, shopPageData{
			SessionUID:    sessionUID,
			Lines:         cart.Lines,
			Selected:      cart.selectedLines(),
			TotalQuantity: cart.totalQuantity(),
			Total:         "$" + cart.totalAmount().StringFixed(2),
			HasSelection:  cart.hasSelection(),
			Providers:     s.providers,
		})
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) adjustQuantityPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		sessionUID := s.obtainSessionUID(w, r)
		productUID := mux.Vars(r)["productUID"]
		operation := mux.Vars(r)["operation"]

		err := s.service.adjustQuantity(c, sessionUID, productUID, operation)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.EmptyResponse{})
	}
}

// obtainSessionUID identifies the shopper. The same uid keys the cart, the
// order intent and the websocket connection.
func (s *webService) obtainSessionUID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionUID := s.service.uuider.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionUID,
		Path:     "/",
		HttpOnly: true,
	})

	return sessionUID
}
