package routes

import (
	"soulmatch_server/controllers"
	"soulmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for candidate selection under /api/match
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/match").Subrouter()

	matchRouter.HandleFunc("/candidate", controller.GetNextCandidate).Methods("GET")
}
