package receipt

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
)

//go:embed templates
var templateFolder embed.FS
var (
	receiptPageTemplate *template.Template
)

func init() {
	receiptPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/receipt.html"))
}

type webService struct {
	service *Service
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(service *Service) *webService {
	return &webService{
		service: service,
		logger:  mylog.New("receiptweb"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/receipt/{checkoutUID}", s.receiptPage()).Methods("GET")

	return nil
}

func (s *webService) receiptPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		receipt, err := s.service.getReceipt(c, checkoutUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = receiptPageTemplate.Execute(w, receipt)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}
