package controllers

import (
	"net/http"

	"soulmatch_server/models"
	"soulmatch_server/services"
)

// MatchController handles HTTP requests for candidate selection
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

// GetNextCandidate returns one candidate for the caller, or a null
// candidate when the eligible pool is empty. An empty pool is a normal
// response, not an error.
func (mc *MatchController) GetNextCandidate(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	candidate, err := mc.MatchService.NextCandidate(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Candidate *models.Profile `json:"candidate"`
	}{Candidate: candidate})
}
