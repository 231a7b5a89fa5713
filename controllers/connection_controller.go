package controllers

import (
	"encoding/json"
	"net/http"

	"soulmatch_server/services"

	"github.com/gorilla/mux"
)

// ConnectionController handles HTTP requests for the confirmation step and
// chat teardown
type ConnectionController struct {
	ConnectionService *services.ConnectionService
}

// NewConnectionController creates a new ConnectionController instance
func NewConnectionController(connectionService *services.ConnectionService) *ConnectionController {
	return &ConnectionController{ConnectionService: connectionService}
}

// GetActiveConnection finds the caller's connection, optionally filtered by
// status (?userId=&status=)
func (cc *ConnectionController) GetActiveConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	status := r.URL.Query().Get("status")
	if userID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := cc.ConnectionService.ActiveConnection(r.Context(), userID, status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

// GetConnection fetches a connection by ID
func (cc *ConnectionController) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := cc.ConnectionService.GetConnection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conn)
}

// Confirm records the caller's interested/not-interested signal
func (cc *ConnectionController) Confirm(w http.ResponseWriter, r *http.Request) {
	connectionID := mux.Vars(r)["id"]

	var request struct {
		UserID     string `json:"userId"`
		Interested *bool  `json:"interested"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if request.UserID == "" || request.Interested == nil {
		http.Error(w, `{"error": "userId and interested are required"}`, http.StatusBadRequest)
		return
	}

	result, err := cc.ConnectionService.Confirm(r.Context(), connectionID, request.UserID, *request.Interested)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// End terminates an active chat
func (cc *ConnectionController) End(w http.ResponseWriter, r *http.Request) {
	connectionID := mux.Vars(r)["id"]

	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := cc.ConnectionService.End(r.Context(), connectionID, request.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conn)
}
