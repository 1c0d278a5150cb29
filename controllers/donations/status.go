package donations

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// Status returns the current lifecycle state of a donation by transaction id.
func (c *Controller) Status(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var donation models.Donation
	err := database.DB.Where("transaction_id = ?", transactionID).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Transaction not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Transaction status",
		Data: map[string]interface{}{
			"transaction_id": donation.TransactionID,
			"payment_status": donation.PaymentStatus,
			"amount":         donation.Amount,
			"net_amount":     donation.NetAmount,
			"currency":       donation.Currency,
			"created_at":     donation.CreatedAt,
			"updated_at":     donation.UpdatedAt,
		},
	})
}

// PaymentMethod is a checkout option surfaced to the frontend.
type PaymentMethod struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Logo     string `json:"logo"`
	Gateway  string `json:"gateway"`
	IsActive bool   `json:"is_active"`
}

// Methods lists the payment channels the gateway supports. Static for now;
// SSLCommerz exposes all of these under one hosted checkout.
func (c *Controller) Methods(w http.ResponseWriter, r *http.Request) {
	methods := []PaymentMethod{
		{Name: "bKash", Type: "mobile_banking", Logo: "bkash.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "Nagad", Type: "mobile_banking", Logo: "nagad.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "Rocket", Type: "mobile_banking", Logo: "rocket.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "Visa", Type: "card", Logo: "visa.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "Mastercard", Type: "card", Logo: "mastercard.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "DBBL Nexus", Type: "card", Logo: "nexus.png", Gateway: "sslcommerz", IsActive: true},
		{Name: "Internet Banking", Type: "net_banking", Logo: "bank.png", Gateway: "sslcommerz", IsActive: true},
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Available payment methods",
		Data:    methods,
	})
}
