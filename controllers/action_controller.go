package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"soulmatch_server/services"
)

// ActionController handles HTTP requests for like/skip actions
type ActionController struct {
	ActionService *services.ActionService
}

// NewActionController creates a new ActionController instance
func NewActionController(actionService *services.ActionService) *ActionController {
	return &ActionController{ActionService: actionService}
}

// HandleAction processes "like" and "skip" actions
func (ac *ActionController) HandleAction(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID       string `json:"userId"`
		TargetUserID string `json:"targetUserId"`
		Action       string `json:"action"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if request.UserID == "" || request.TargetUserID == "" || request.Action == "" {
		http.Error(w, `{"error": "userId, targetUserId, and action are required"}`, http.StatusBadRequest)
		return
	}

	result, err := ac.ActionService.ProcessAction(r.Context(), request.UserID, request.TargetUserID, request.Action)
	if err != nil {
		respondError(w, err)
		return
	}

	if result.Matched {
		log.Printf("Mutual match: %s and %s share connection %s", request.UserID, request.TargetUserID, result.ConnectionID)
	}
	respondJSON(w, http.StatusOK, result)
}
