package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lascala-dine/api/internal/auth"
	"github.com/lascala-dine/api/internal/tracker"
)

// ServeTrackWS streams live snapshots of one order to a diner. The first
// message is the current snapshot; every subsequent message is a fresh
// snapshot fetched after a change. The socket is scoped by the table
// session token, so a diner can only follow orders in their restaurant.
// Endpoint: WS /ws/restaurants/{rid}/orders/{oid}/track?token=JWT
func ServeTrackWS(tr *tracker.Tracker, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateTableToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		http.Error(w, "invalid restaurant id", http.StatusBadRequest)
		return
	}
	if claims.RestaurantID != restaurantID {
		http.Error(w, "restaurant access denied", http.StatusForbidden)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	session, err := tr.Track(r.Context(), restaurantID, orderID)
	if err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		session.Close()
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	go trackReadPump(conn, session)
	go trackWritePump(conn, session)
}

// trackReadPump exists to notice disconnects; the diner never sends frames.
func trackReadPump(conn *websocket.Conn, session *tracker.Session) {
	defer func() {
		session.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
	}
}

func trackWritePump(conn *websocket.Conn, session *tracker.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		session.Close()
		conn.Close()
	}()

	if !writeSnapshot(conn, session.Snapshot()) {
		return
	}

	for {
		select {
		case snap, ok := <-session.Updates():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !writeSnapshot(conn, snap) {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap tracker.Snapshot) bool {
	message, err := json.Marshal(snap)
	if err != nil {
		log.Printf("ERROR: marshal snapshot: %v", err)
		return false
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, message) == nil
}
