package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/afifmansib123/ModernApp-2-Pujigori/controllers/creators"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
)

// RegisterCreatorRoutes mounts the payout request endpoints behind creator auth.
func RegisterCreatorRoutes(api *mux.Router) {
	creatorOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.RequireRole("creator", h))
	}

	api.Handle("/payment-requests", creatorOnly(creators.Create)).Methods(http.MethodPost)
	api.Handle("/payment-requests", creatorOnly(creators.List)).Methods(http.MethodGet)
	api.Handle("/payment-requests/{id}", creatorOnly(creators.Get)).Methods(http.MethodGet)
	api.Handle("/projects/{projectId}/available-balance", creatorOnly(creators.AvailableBalance)).Methods(http.MethodGet)
}
