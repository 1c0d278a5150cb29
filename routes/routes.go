package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/afifmansib123/ModernApp-2-Pujigori/controllers/auth"
	"github.com/afifmansib123/ModernApp-2-Pujigori/controllers/donations"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "pujigori-payment-api",
	})
}

func InitRouter(gateway *utils.SSLCommerzClient) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or defaults
	origins := []string{
		"http://localhost:3000", "http://localhost:8080",
		"http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/api").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	api.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	// Rate limiters: webhook traffic is bursty, cron is narrow
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, strings.Split(os.Getenv("GATEWAY_IP_WHITELIST"), ","))
	cronLimiter := middleware.NewIPRateLimiter(100, time.Hour)
	authLimiter := middleware.NewIPRateLimiter(50, 15*time.Minute)

	donationController := donations.NewController(gateway)

	// Auth
	api.Handle("/auth/register", authLimiter.Middleware(http.HandlerFunc(auth.Register))).Methods(http.MethodPost)
	api.Handle("/auth/login", authLimiter.Middleware(http.HandlerFunc(auth.Login))).Methods(http.MethodPost)
	api.Handle("/auth/logout", http.HandlerFunc(auth.Logout)).Methods(http.MethodPost)

	// Payments: initiation is open to guests, webhook comes from the gateway
	api.Handle("/payments/initiate", http.HandlerFunc(donationController.Initiate)).Methods(http.MethodPost)
	api.Handle("/payments/webhook", webhookLimiter.Middleware(http.HandlerFunc(donationController.Webhook))).Methods(http.MethodPost)
	api.Handle("/payments/success/{transactionId}", http.HandlerFunc(donationController.SuccessRedirect)).Methods(http.MethodGet, http.MethodPost)
	api.Handle("/payments/fail/{transactionId}", http.HandlerFunc(donationController.FailRedirect)).Methods(http.MethodGet, http.MethodPost)
	api.Handle("/payments/cancel/{transactionId}", http.HandlerFunc(donationController.CancelRedirect)).Methods(http.MethodGet, http.MethodPost)
	api.Handle("/payments/{transactionId}/status", http.HandlerFunc(donationController.Status)).Methods(http.MethodGet)
	api.Handle("/payments/methods", http.HandlerFunc(donationController.Methods)).Methods(http.MethodGet)

	// Reward redemption requires the donor's own session
	api.Handle("/payments/rewards/{transactionId}/redeem",
		middleware.AuthMiddleware(http.HandlerFunc(donationController.RedeemReward))).Methods(http.MethodPost)

	// Cron reconciliation (protected via X-CRON-KEY header)
	api.Handle("/cron/reconcile-payments",
		cronLimiter.Middleware(http.HandlerFunc(donationController.Reconcile))).Methods(http.MethodPost)

	RegisterCreatorRoutes(api)
	RegisterAdminRoutes(api, donationController)

	return r
}
