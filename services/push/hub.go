package push

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/thepointbar/posbackend/lib/mylog"
)

// frame is the wire format pushed to connected shoppers.
type frame struct {
	Type        string `json:"type"`
	SessionUID  string `json:"sessionId,omitempty"`
	Status      string `json:"status,omitempty"`
	PaymentID   string `json:"paymentId,omitempty"`
	CheckoutUID string `json:"checkoutUid,omitempty"`
}

const (
	frameTypeSession        = "session"
	frameTypePaymentOutcome = "paymentOutcome"
	frameTypeCatalogChanged = "catalogChanged"
)

// Hub tracks the open websocket connections per shopper session. A session
// can have more than one connection, the shop page and the payment page
// both listen.
type Hub struct {
	mutex  sync.Mutex
	conns  map[string][]*websocket.Conn
	logger mylog.Logger
}

func NewHub() *Hub {
	return &Hub{
		conns:  map[string][]*websocket.Conn{},
		logger: mylog.New("pushhub"),
	}
}

func (h *Hub) register(sessionUID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.conns[sessionUID] = append(h.conns[sessionUID], conn)
}

func (h *Hub) unregister(sessionUID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	remaining := []*websocket.Conn{}
	for _, existing := range h.conns[sessionUID] {
		if existing != conn {
			remaining = append(remaining, existing)
		}
	}

	if len(remaining) == 0 {
		delete(h.conns, sessionUID)
	} else {
		h.conns[sessionUID] = remaining
	}
}

func (h *Hub) notifySession(c context.Context, sessionUID string, f frame) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, conn := range h.conns[sessionUID] {
		err := conn.WriteJSON(f)
		if err != nil {
			h.logger.Log(c, sessionUID, mylog.SeverityWarn, "Error pushing %s frame to session %s: %s", f.Type, sessionUID, err)
		}
	}
}

func (h *Hub) broadcast(c context.Context, f frame) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for sessionUID, conns := range h.conns {
		for _, conn := range conns {
			err := conn.WriteJSON(f)
			if err != nil {
				h.logger.Log(c, sessionUID, mylog.SeverityWarn, "Error pushing %s frame to session %s: %s", f.Type, sessionUID, err)
			}
		}
	}
}

func (h *Hub) connectionCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	count := 0
	for _, conns := range h.conns {
		count += len(conns)
	}
	return count
}
