package donations

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// Webhook handles the gateway's instant payment notification. The notified
// status is never trusted on its own: success is confirmed against the
// validator API before any financial effect is applied, and the finalization
// itself is a compare-and-swap so replays are harmless.
func (c *Controller) Webhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid form body"})
		return
	}
	payload := utils.IPNFromForm(r.PostForm)

	if missing := payload.MissingFields(); len(missing) > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	if !c.Gateway.VerifyIPNSignature(payload) {
		log.Printf("[webhook] signature mismatch tran_id=%s", payload.TranID)
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid signature"})
		return
	}

	db := database.DB

	var donation models.Donation
	if err := db.Where("transaction_id = ?", payload.TranID).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Unknown transaction"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	switch strings.ToUpper(payload.Status) {
	case "VALID", "VALIDATED":
		validation, err := c.Gateway.ValidateTransaction(r.Context(), payload.ValID, payload.TranID, donation.Amount)
		if err != nil {
			log.Printf("[webhook] validation call failed tran_id=%s: %v", payload.TranID, err)
			utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Gateway validation unavailable"})
			return
		}
		if !validation.Verified() {
			log.Printf("[webhook] validator declined tran_id=%s status=%s", payload.TranID, validation.Status)
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Transaction not verified by gateway"})
			return
		}
		if !tranIDMatches(validation.TranID, payload.TranID) {
			log.Printf("[webhook] tran_id mismatch notified=%s validator=%s", payload.TranID, validation.TranID)
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Transaction mismatch"})
			return
		}
		if !amountMatches(validation.Amount, donation.Amount) {
			log.Printf("[webhook] amount mismatch tran_id=%s notified=%s stored=%.2f", payload.TranID, validation.Amount, donation.Amount)
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount mismatch"})
			return
		}

		applied, err := models.MarkDonationSuccess(db, payload.TranID, models.GatewayMetadata{
			ValidationID: payload.ValID,
			BankTranID:   payload.BankTranID,
			CardType:     validation.CardType,
			CardNo:       validation.CardNo,
			CardIssuer:   validation.CardIssuer,
			CardBrand:    validation.CardBrand,
		})
		if err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to record payment"})
			return
		}
		if !applied {
			// duplicate or late notification; the first one already settled it
			log.Printf("[webhook] duplicate notification ignored tran_id=%s", payload.TranID)
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment recorded"})

	case "FAILED":
		if _, err := models.MarkDonationTerminal(db, payload.TranID, models.DonationFailed); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to record payment"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment marked failed"})

	case "CANCELLED":
		if _, err := models.MarkDonationTerminal(db, payload.TranID, models.DonationCancelled); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to record payment"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment marked cancelled"})

	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown payment status"})
	}
}

// tranIDMatches requires the validator's record to name the same transaction
// the IPN did. A validator response without a tran_id settles nothing.
func tranIDMatches(reported, expected string) bool {
	return reported != "" && reported == expected
}

// amountMatches compares the gateway-reported amount string against the stored
// amount with a one-taka tolerance for gateway-side rounding.
func amountMatches(reported string, stored float64) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(reported), 64)
	if err != nil {
		return false
	}
	return math.Abs(v-stored) < 1.0
}
