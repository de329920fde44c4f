package ws

import (
	"encoding/json"
	"log"
	"sync"

	"classpulse/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgResponseSubmitted MessageType = "response_submitted"
	MsgVersionBumped     MessageType = "version_bumped"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages the dashboard watchers of each survey. Several teachers
// or browser tabs may watch the same survey; every watcher receives
// every event for it.
type Hub struct {
	// survey -> connections
	watchers map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one dashboard watcher
type Connection struct {
	SurveyID string
	UserID   string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message fanned out to a survey's watchers
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.SurveyID] == nil {
				h.watchers[conn.SurveyID] = make(map[*Connection]bool)
			}
			h.watchers[conn.SurveyID][conn] = true
			h.mu.Unlock()
			log.Printf("Watcher %s connected to survey %s", conn.UserID, conn.SurveyID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.SurveyID]; ok && conns[conn] {
				delete(conns, conn)
				close(conn.Send)
				if len(conns) == 0 {
					delete(h.watchers, conn.SurveyID)
				}
				log.Printf("Watcher %s disconnected from survey %s", conn.UserID, conn.SurveyID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.watchers[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func (h *Hub) send(surveyID string, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WebSocket payload encode error: %v", err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}

// ResponseSubmitted notifies watchers of a new submission (implements
// service.Broadcaster)
func (h *Hub) ResponseSubmitted(surveyID string, response *model.SurveyResponse) {
	h.send(surveyID, MsgResponseSubmitted, map[string]interface{}{
		"responseId":    response.ID,
		"studentName":   response.StudentName,
		"sectionId":     response.SectionID,
		"surveyVersion": response.SurveyVersion,
		"submittedAt":   response.SubmittedAt,
	})
}

// VersionBumped notifies watchers that existing responses just became
// outdated (implements service.Broadcaster)
func (h *Hub) VersionBumped(surveyID string, version int) {
	h.send(surveyID, MsgVersionBumped, map[string]interface{}{
		"surveyId": surveyID,
		"version":  version,
	})
}
