package checkout

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/thepointbar/posbackend/lib/mycontext"
	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypublisher"
	"github.com/thepointbar/posbackend/lib/mystore"
	"github.com/thepointbar/posbackend/lib/mytime"
	"github.com/thepointbar/posbackend/lib/myuuid"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
	"github.com/thepointbar/posbackend/services/checkoutapi"
)

const sessionCookieName = "pos_session"

//go:embed templates
var templateFolder embed.FS
var (
	paymentPageTemplate *template.Template
	resultPageTemplate  *template.Template
)

func init() {
	paymentPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/payment.html"))
	resultPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/result.html"))
}

type webService struct {
	service   *service
	providers []string
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(checkoutStore mystore.Store[Checkout], payers map[string]checkoutapi.Payer, cart CartAPI, printer Printer, publisher mypublisher.Publisher, nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("checkout")

	providers := make([]string, 0, len(payers))
	for name := range payers {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	return &webService{
		service:   newService(checkoutStore, payers, cart, printer, publisher, nower, uuider, logger),
		providers: providers,
		logger:    logger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Endpoints that compose the user-interface
	router.HandleFunc("/checkout", s.startCheckoutPage()).Methods("POST")
	router.HandleFunc("/checkout/{checkoutUID}", s.resumeCheckoutPage()).Methods("GET")
	router.HandleFunc("/checkout/{checkoutUID}/provider/{provider}", s.switchProviderPage()).Methods("POST")
	router.HandleFunc("/checkout/{checkoutUID}/qr.png", s.qrImage()).Methods("GET")
	router.HandleFunc("/checkout/{checkoutUID}/cancel", s.cancelCheckoutPage()).Methods("POST")

	// Providers redirect the shopper here after the payment leg
	router.HandleFunc("/payment/result", s.redirectCallbackPage()).Methods("GET")

	// Providers push the authoritative outcome here
	router.HandleFunc("/checkout/{checkoutUID}/webhook", s.webhookNotification()).Methods("POST")

	// Manual fallback for when neither webhook nor redirect arrives
	router.HandleFunc("/checkout/{checkoutUID}/simulate/{status}", s.simulateOutcome()).Methods("POST")

	err := s.service.publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return err
	}

	return nil
}

type paymentPageData struct {
	Checkout  Checkout
	Payable   checkoutapi.PayableReference
	Providers []string
}

func (s *webService) startCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputErrorf("missing session"))
			return
		}

		providerName := r.FormValue("provider")

		checkout, err := s.service.startCheckout(c, cookie.Value, providerName)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		s.renderPaymentPage(c, w, checkout)
	}
}

func (s *webService) resumeCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		checkout, err := s.service.getCheckout(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		s.renderPaymentPage(c, w, checkout)
	}
}

func (s *webService) switchProviderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]
		providerName := mux.Vars(r)["provider"]

		checkout, err := s.service.switchProvider(c, checkoutUID, providerName)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		s.renderPaymentPage(c, w, checkout)
	}
}

func (s *webService) qrImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		checkout, err := s.service.getCheckout(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		payable := checkout.currentPayable()
		if payable.QRPayload == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewNotFoundError(fmt.Errorf("no qr payload for checkout %s", checkoutUID)))
			return
		}

		png, err := qrcode.Encode(payable.QRPayload, qrcode.Medium, 256)
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInternalError(err))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}

func (s *webService) cancelCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		_, err := s.service.cancel(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// redirectCallbackPage handles the shopper returning from the provider's
// hosted payment page.
func (s *webService) redirectCallbackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := r.URL.Query().Get("checkout")
		rawStatus := r.URL.Query().Get("status")
		paymentID := r.URL.Query().Get("payment_id")

		status, valid := checkoutapi.OutcomeFromExternal(rawStatus)
		if !valid {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputErrorf("unknown payment status %q", rawStatus))
			return
		}

		checkout, err := s.service.settle(c, checkoutUID, sourceRedirect, status, paymentID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = resultPageTemplate.Execute(w, checkout)
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInternalError(err))
			return
		}
	}
}

type webhookRequest struct {
	Status    string `json:"status"`
	PaymentID string `json:"paymentId"`
}

func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		req := webhookRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		status, valid := checkoutapi.OutcomeFromExternal(req.Status)
		if !valid {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputErrorf("unknown payment status %q", req.Status))
			return
		}

		_, err = s.service.settle(c, checkoutUID, sourceWebhook, status, req.PaymentID)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.EmptyResponse{})
	}
}

func (s *webService) simulateOutcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]
		rawStatus := mux.Vars(r)["status"]

		status, valid := checkoutapi.OutcomeFromExternal(rawStatus)
		if !valid {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputErrorf("unknown payment status %q", rawStatus))
			return
		}

		paymentID := r.FormValue("paymentId")
		if paymentID == "" {
			paymentID = "manual-" + checkoutUID
		}

		checkout, err := s.service.settle(c, checkoutUID, sourceManual, status, paymentID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, checkout)
	}
}

func (s *webService) renderPaymentPage(c context.Context, w http.ResponseWriter, checkout Checkout) {
	errorWriter := myhttp.NewWriter(s.logger)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := paymentPageTemplate.Execute(w, paymentPageData{
		Checkout:  checkout,
		Payable:   checkout.currentPayable(),
		Providers: s.providers,
	})
	if err != nil {
		errorWriter.WriteError(c, w, 1, myerrors.NewInternalError(err))
		return
	}
}
