package controllers

import (
	"encoding/json"
	"net/http"

	"soulmatch_server/models"
	"soulmatch_server/services"

	"github.com/gorilla/mux"
)

// ProfileController handles HTTP requests for profiles
type ProfileController struct {
	ProfileService *services.ProfileService
}

// NewProfileController creates a new ProfileController instance
func NewProfileController(profileService *services.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

func validGender(g string) bool {
	return g == models.GenderMale || g == models.GenderFemale || g == models.GenderOther
}

// CreateProfile creates a profile and runs pool admission
func (pc *ProfileController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if profile.UserID == "" || !validGender(profile.Gender) || !validGender(profile.Preference) {
		http.Error(w, `{"error": "userId, gender, and preference are required"}`, http.StatusBadRequest)
		return
	}
	if len(profile.IntroText) > 200 {
		http.Error(w, `{"error": "introText must be at most 200 characters"}`, http.StatusBadRequest)
		return
	}

	created, err := pc.ProfileService.CreateProfile(r.Context(), profile)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetProfile fetches a profile by user ID
func (pc *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := pc.ProfileService.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile patches user-editable fields
func (pc *ProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil || len(updates) == 0 {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	profile, err := pc.ProfileService.UpdateProfile(r.Context(), userID, updates)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GetPoolCounts reports the in-pool head count per gender
func (pc *ProfileController) GetPoolCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := pc.ProfileService.PoolCounts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}
