package routes

import (
	"soulmatch_server/controllers"
	"soulmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterActionRoutes sets up routes for like/skip actions under /api/actions
func RegisterActionRoutes(r *mux.Router, actionService *services.ActionService) {
	controller := controllers.NewActionController(actionService)

	actionRouter := r.PathPrefix("/api/actions").Subrouter()

	actionRouter.HandleFunc("", controller.HandleAction).Methods("POST")
}
