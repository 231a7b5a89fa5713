package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soulmatch_server/services"
)

// ChatController handles HTTP requests for chat messages
type ChatController struct {
	ChatService *services.ChatService
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{ChatService: service}
}

// SendMessage stores a new message and pushes it into the connection's room
func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConnectionID string `json:"connectionId"`
		SenderID     string `json:"senderId"`
		Text         string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if request.ConnectionID == "" || request.SenderID == "" || request.Text == "" {
		http.Error(w, `{"error": "connectionId, senderId, and text are required"}`, http.StatusBadRequest)
		return
	}
	if len(request.Text) > 2000 {
		http.Error(w, `{"error": "text must be at most 2000 characters"}`, http.StatusBadRequest)
		return
	}

	msg, err := c.ChatService.SendMessage(r.Context(), request.ConnectionID, request.SenderID, request.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// GetMessages fetches the transcript for a connection in send order
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	connectionID := r.URL.Query().Get("connectionId")
	if connectionID == "" {
		http.Error(w, `{"error": "connectionId is required"}`, http.StatusBadRequest)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := c.ChatService.GetMessages(r.Context(), connectionID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}
