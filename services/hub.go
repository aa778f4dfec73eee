package services

import (
	"encoding/json"
	"time"

	"formhub/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// ResultsHub fans each new form submission out to websocket clients watching
// that template's results view.
type ResultsHub struct {
	clients    map[*resultsClient]bool
	broadcast  chan targetedMessage
	register   chan *resultsClient
	unregister chan *resultsClient
	logger     *zap.Logger
}

type resultsClient struct {
	hub        *ResultsHub
	socket     *websocket.Conn
	send       chan []byte
	templateID uint
}

type targetedMessage struct {
	templateID uint
	data       []byte
}

type ResultsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewResultsHub(logger *zap.Logger) *ResultsHub {
	return &ResultsHub{
		clients:    make(map[*resultsClient]bool),
		broadcast:  make(chan targetedMessage),
		register:   make(chan *resultsClient),
		unregister: make(chan *resultsClient),
		logger:     logger,
	}
}

func (h *ResultsHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("results client registered",
				zap.Uint("template_id", client.templateID),
				zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if client.templateID != message.templateID {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastSubmission pushes a freshly submitted form to every watcher of
// its template.
func (h *ResultsHub) BroadcastSubmission(form *models.Form) {
	message := ResultsMessage{
		Type:    "form_submitted",
		Payload: form,
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("results broadcast encode failed", zap.Error(err))
		return
	}
	h.broadcast <- targetedMessage{templateID: form.TemplateID, data: data}
}

// RegisterClient takes ownership of the upgraded connection and starts its
// read and write pumps.
func (h *ResultsHub) RegisterClient(conn *websocket.Conn, templateID uint) {
	client := &resultsClient{
		hub:        h,
		socket:     conn,
		send:       make(chan []byte, sendBufferSize),
		templateID: templateID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; results watchers never send data.
func (c *resultsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	c.socket.SetReadLimit(512)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *resultsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
