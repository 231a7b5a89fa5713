package routes

import (
	"soulmatch_server/controllers"
	"soulmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterConnectionRoutes sets up routes for the confirmation step and
// teardown under /api/connections
func RegisterConnectionRoutes(r *mux.Router, connectionService *services.ConnectionService) {
	controller := controllers.NewConnectionController(connectionService)

	connectionRouter := r.PathPrefix("/api/connections").Subrouter()

	connectionRouter.HandleFunc("/active", controller.GetActiveConnection).Methods("GET")
	connectionRouter.HandleFunc("/{id}", controller.GetConnection).Methods("GET")
	connectionRouter.HandleFunc("/{id}/confirm", controller.Confirm).Methods("POST")
	connectionRouter.HandleFunc("/{id}/end", controller.End).Methods("POST")
}
