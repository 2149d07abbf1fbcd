package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/pkg/contracts/events"
)

// ClientMsg é a mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type    string `json:"type"`    // subscribe | unsubscribe | ping
	OwnerID string `json:"ownerId"` // requerido em subscribe/unsubscribe
}

// conn serializa escritas; gorilla não permite escritores concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub gerencia conexões WebSocket e assinaturas por carteira
// subs: ownerID -> conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*conn]struct{}
}

func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*conn]struct{}),
	}
}

// ServeHTTP gerencia o ciclo de vida da conexão: subscribe/unsubscribe por ownerId e ping
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.OwnerID == "" {
				_ = c.writeJSON(map[string]string{"type": "error", "error": "ownerId required"})
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.OwnerID]; !ok {
				h.subs[msg.OwnerID] = make(map[*conn]struct{})
			}
			h.subs[msg.OwnerID][c] = struct{}{}
			h.mu.Unlock()
			_ = c.writeJSON(map[string]string{"type": "subscribed", "ownerId": msg.OwnerID})
		case "unsubscribe":
			h.remove(msg.OwnerID, c)
			_ = c.writeJSON(map[string]string{"type": "unsubscribed", "ownerId": msg.OwnerID})
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}

	// remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for owner, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, owner)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(owner string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[owner]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, owner)
		}
	}
}

// Subscribers quantas conexões acompanham a carteira
func (h *Hub) Subscribers(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[owner])
}

// Broadcast envia a atualização para todos os inscritos na carteira
func (h *Hub) Broadcast(upd events.WalletUpdate) {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.subs[upd.UserID]))
	for c := range h.subs[upd.UserID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, err := json.Marshal(map[string]any{"type": "wallet_update", "payload": upd})
	if err != nil {
		return
	}
	for _, c := range conns {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.String("owner_id", upd.UserID), zap.Error(err))
		}
	}
}
