package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected dashboards
const (
	EventApprovalSubmitted = "approval_submitted"
	EventApprovalDecision  = "approval_decision"
	EventBonusRecorded     = "leadership_bonus_recorded"
	EventTierPromotion     = "tier_promotion"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID   primitive.ObjectID
	UserType string
	Conn     *websocket.Conn
}

// Hub maintains the set of active clients and pushes workflow events to
// them. Reviewers (admins and team leads) additionally receive every
// submission event.
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// BroadcastToReviewers pushes an event to every connected admin and team lead
func (h *Hub) BroadcastToReviewers(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserType == "admin" || client.UserType == "team_lead" {
			client.Conn.WriteJSON(event)
		}
	}
}

// NotifyApprovalSubmitted tells reviewers a new approval needs attention
func (h *Hub) NotifyApprovalSubmitted(approvalData interface{}) {
	h.BroadcastToReviewers(Event{
		Type:    EventApprovalSubmitted,
		Message: "New commission approval submitted",
		Data:    approvalData,
	})
}

// NotifyBonusRecorded tells an upline agent a leadership bonus was recorded
func (h *Hub) NotifyBonusRecorded(userID primitive.ObjectID, bonusData interface{}) error {
	return h.SendToUser(userID, Event{
		Type:    EventBonusRecorded,
		Message: "A leadership bonus has been recorded for you",
		Data:    bonusData,
	})
}

// NotifyTierPromotion tells an agent their tier changed
func (h *Hub) NotifyTierPromotion(userID primitive.ObjectID, promotionData interface{}) error {
	return h.SendToUser(userID, Event{
		Type:    EventTierPromotion,
		Message: "Your tier has been updated",
		Data:    promotionData,
	})
}

// NotifyApprovalDecision tells the submitting agent about a review decision
func (h *Hub) NotifyApprovalDecision(userID primitive.ObjectID, approvalData interface{}) error {
	return h.SendToUser(userID, Event{
		Type:    EventApprovalDecision,
		Message: "Your commission approval has been reviewed",
		Data:    approvalData,
	})
}
