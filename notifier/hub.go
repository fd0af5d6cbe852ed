package notifier

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"syncboard/models"
	"syncboard/utilities"

	"github.com/gorilla/websocket"
)

const (
	// SendBuffer é quantos frames cada conexão acumula antes de começar a descartar
	SendBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub distribui os eventos do quadro para todas as conexões WebSocket abertas.
// A entrega é best effort: quem está desconectado perde o evento e quem está
// com o buffer cheio tem o frame descartado.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub cria o hub. checkOrigin nil aceita qualquer origem.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish serializa o evento e enfileira para cada cliente conectado.
func (h *Hub) Publish(event string, args ...interface{}) {
	if args == nil {
		args = []interface{}{}
	}
	frame, err := json.Marshal(models.Message{Target: event, Arguments: args})
	if err != nil {
		utilities.LogError(err, "Erro ao serializar evento "+event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		utilities.LogWarn("Evento %s descartado para %d clientes com buffer cheio", event, dropped)
	}
	utilities.LogDebug("Evento %s enviado para %d clientes", event, len(h.clients)-dropped)
}

// Clients retorna quantas conexões estão abertas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP faz o upgrade da conexão e mantém o cliente registrado até ele cair.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// o upgrader já respondeu com o erro HTTP
		utilities.LogWarn("Falha no upgrade do WebSocket de %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, SendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	utilities.LogInfo("Cliente de tempo real conectado: %s", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump só existe para processar pong e detectar a desconexão; o canal é unidirecional.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utilities.LogDebug("Conexão de tempo real encerrada: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close desconecta todos os clientes e recusa novas conexões
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
