package push

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/thepointbar/posbackend/lib/mycontext"
	"github.com/thepointbar/posbackend/lib/myerrors"
	"github.com/thepointbar/posbackend/lib/myhttp"
	"github.com/thepointbar/posbackend/lib/mylog"
	"github.com/thepointbar/posbackend/lib/mypubsub"
	"github.com/thepointbar/posbackend/services/catalog/catalogevents"
	"github.com/thepointbar/posbackend/services/checkout/checkoutevents"
)

const sessionCookieName = "pos_session"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// same-origin pages only, the venue terminal and the shopper phones
		return true
	},
}

type webService struct {
	service *service
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(hub *Hub, subscriber mypubsub.PubSub) *webService {
	logger := mylog.New("push")

	return &webService{
		service: newService(hub, subscriber, logger),
		logger:  logger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/ws", s.websocketConnect()).Methods("GET")

	// Listen for settled checkouts and assortment changes
	router.HandleFunc("/api/push/checkout/event", s.handleCheckoutEventEnvelope()).Methods("POST")
	router.HandleFunc("/api/push/catalog/event", s.handleCatalogEventEnvelope()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) websocketConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputErrorf("missing session"))
			return
		}
		sessionUID := cookie.Value

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied to the client
			s.logger.Log(c, sessionUID, mylog.SeverityWarn, "Error upgrading connection of session %s: %s", sessionUID, err)
			return
		}

		s.service.hub.register(sessionUID, conn)
		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Session %s connected", sessionUID)

		err = conn.WriteJSON(frame{
			Type:       frameTypeSession,
			SessionUID: sessionUID,
		})
		if err != nil {
			s.logger.Log(c, sessionUID, mylog.SeverityWarn, "Error greeting session %s: %s", sessionUID, err)
		}

		// Shoppers never send application data, the read loop only serves
		// to detect the connection going away.
		go func() {
			defer func() {
				s.service.hub.unregister(sessionUID, conn)
				conn.Close()
				s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Session %s disconnected", sessionUID)
			}()
			for {
				_, _, err := conn.ReadMessage()
				if err != nil {
					return
				}
			}
		}()
	}
}

func (s *webService) handleCheckoutEventEnvelope() http.HandlerFunc {
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

func (s *webService) handleCatalogEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := catalogevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.EmptyResponse{})
	}
}
