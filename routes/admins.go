package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/afifmansib123/ModernApp-2-Pujigori/controllers/admins"
	"github.com/afifmansib123/ModernApp-2-Pujigori/controllers/donations"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
)

// RegisterAdminRoutes mounts the admin surface. Login is public; everything
// else verifies the admin account on every request.
func RegisterAdminRoutes(api *mux.Router, donationController *donations.Controller) {
	api.Handle("/admin/login", http.HandlerFunc(admins.Login)).Methods(http.MethodPost)

	ar := api.PathPrefix("/admin").Subrouter()
	ar.Use(middleware.AdminAuthMiddleware)

	ar.Handle("/dashboard", http.HandlerFunc(admins.GetDashboardStats)).Methods(http.MethodGet)
	ar.Handle("/analytics", http.HandlerFunc(admins.GetAnalytics)).Methods(http.MethodGet)
	ar.Handle("/reports/financial", http.HandlerFunc(admins.GetFinancialReport)).Methods(http.MethodGet)

	ar.Handle("/donations", http.HandlerFunc(admins.ListDonations)).Methods(http.MethodGet)
	ar.Handle("/donations/statistics", http.HandlerFunc(donationController.Statistics)).Methods(http.MethodGet)
	ar.Handle("/donations/{transactionId}/verify", http.HandlerFunc(donationController.Verify)).Methods(http.MethodGet)
	ar.Handle("/donations/{transactionId}/refund", http.HandlerFunc(donationController.Refund)).Methods(http.MethodPost)

	ar.Handle("/payment-requests", http.HandlerFunc(admins.ListPaymentRequests)).Methods(http.MethodGet)
	ar.Handle("/payment-requests/{id}/approve", http.HandlerFunc(admins.ApprovePaymentRequest)).Methods(http.MethodPost)
	ar.Handle("/payment-requests/{id}/reject", http.HandlerFunc(admins.RejectPaymentRequest)).Methods(http.MethodPost)
	ar.Handle("/payment-requests/{id}/mark-paid", http.HandlerFunc(admins.MarkPaymentRequestPaid)).Methods(http.MethodPost)
}
