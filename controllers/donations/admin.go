package donations

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// Admin-only handlers. These are mounted behind AdminAuthMiddleware.

var errRefundRace = errors.New("donation status changed during refund")

// parseStatsWindow reads optional project_id / from / to query filters.
func parseStatsWindow(r *http.Request) (*uint, *time.Time, *time.Time) {
	var projectID *uint
	if s := r.URL.Query().Get("project_id"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 32); err == nil {
			id := uint(v)
			projectID = &id
		}
	}
	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			from = &t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			to = &end
		}
	}
	return projectID, from, to
}

// Statistics aggregates successful donations, optionally per project and date range.
func (c *Controller) Statistics(w http.ResponseWriter, r *http.Request) {
	projectID, from, to := parseStatsWindow(r)
	stats, err := models.DonationStatistics(database.DB, projectID, from, to)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to compute statistics"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Donation statistics",
		Data:    stats,
	})
}

// Verify re-checks a donation against the gateway validator and reports both
// sides without mutating anything.
func (c *Controller) Verify(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var donation models.Donation
	if err := database.DB.Where("transaction_id = ?", transactionID).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Transaction not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	data := map[string]interface{}{
		"transaction_id": donation.TransactionID,
		"local_status":   donation.PaymentStatus,
	}
	if donation.ValidationID != nil {
		validation, err := c.Gateway.ValidateTransaction(r.Context(), *donation.ValidationID, donation.TransactionID, donation.Amount)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Gateway validation unavailable", Data: data})
			return
		}
		data["gateway_status"] = validation.Status
		data["gateway_amount"] = validation.Amount
		data["verified"] = validation.Verified()
	} else {
		result, err := c.Gateway.QueryTransaction(r.Context(), transactionID)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Gateway query unavailable", Data: data})
			return
		}
		data["gateway_status"] = result.Status
		data["gateway_amount"] = result.Amount
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Verification result", Data: data})
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Refund asks the gateway to return a settled donation to the donor and
// reverses the project's running totals.
func (c *Controller) Refund(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var req RefundRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	var donation models.Donation
	if err := db.Where("transaction_id = ?", transactionID).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Transaction not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	if donation.PaymentStatus != models.DonationSuccess {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Only successful donations can be refunded"})
		return
	}
	if donation.BankTranID == nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Donation has no bank transaction reference"})
		return
	}

	refundRef := utils.GenerateRefundRef()
	result, err := c.Gateway.RefundTransaction(r.Context(), *donation.BankTranID, refundRef, req.Reason, donation.Amount)
	if err != nil {
		status := http.StatusBadGateway
		msg := "Gateway refund unavailable"
		if errors.Is(err, utils.ErrGatewayRejected) {
			msg = "Gateway rejected the refund"
		}
		utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: msg})
		return
	}

	// financial reversal mirrors the success finalization
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Donation{}).
			Where("id = ? AND payment_status = ?", donation.ID, models.DonationSuccess).
			Update("payment_status", models.DonationCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRefundRace
		}
		return tx.Model(&models.Project{}).Where("id = ?", donation.ProjectID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount - ?", donation.NetAmount),
				"backer_count":   gorm.Expr("backer_count - 1"),
			}).Error
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Donation changed while refunding, please re-check"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Refund initiated",
		Data: map[string]interface{}{
			"transaction_id": donation.TransactionID,
			"refund_ref":     refundRef,
			"gateway_ref":    result.RefundRefID,
		},
	})
}
