package donations

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

type InitiateDonationRequest struct {
	ProjectID   uint    `json:"project_id"`
	Amount      float64 `json:"amount"`
	DonorName   string  `json:"donor_name" validate:"required,nameok"`
	DonorEmail  string  `json:"donor_email" validate:"required,email"`
	DonorPhone  string  `json:"donor_phone" validate:"required"`
	IsAnonymous bool    `json:"is_anonymous"`
	Message     string  `json:"message"`
}

// Initiate creates a pending donation and opens a gateway checkout session.
// The fee split is computed and frozen here; later webhooks only flip status.
func (c *Controller) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateDonationRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if !utils.IsValidAmount(req.Amount) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: fmt.Sprintf("Amount must be between %d and %d BDT", utils.MinDonationAmount, utils.MaxDonationAmount),
		})
		return
	}

	db := database.DB

	var project models.Project
	if err := db.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Project not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong, please try again"})
		return
	}
	if !project.AcceptsDonations() {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Project is not accepting donations"})
		return
	}

	fee, net := utils.CalculateFee(req.Amount)
	transactionID := utils.GenerateTransactionID()

	donation := models.Donation{
		TransactionID: transactionID,
		ProjectID:     project.ID,
		DonorName:     req.DonorName,
		DonorEmail:    strings.ToLower(req.DonorEmail),
		DonorPhone:    req.DonorPhone,
		Amount:        utils.RoundFloat(req.Amount, 2),
		AdminFee:      fee,
		NetAmount:     net,
		Currency:      "BDT",
		PaymentStatus: models.DonationPending,
		RewardStatus:  models.RewardNone,
	}

	// a logged-in donor gets linked; guests donate with contact info only
	if uid, ok := utils.GetUserID(r); ok && uid != 0 {
		donation.DonorID = &uid
	}
	if req.IsAnonymous {
		anon := "Anonymous"
		donation.DonorDisplayName = &anon
	}

	// attach the best matching reward tier up front; it arms on success
	reward, err := models.MatchReward(db, project.ID, donation.Amount)
	if err == nil && reward != nil {
		donation.RewardID = &reward.ID
	}

	// the unique index on transaction_id backstops the generator; on the
	// rare collision mint a fresh id and insert again
	for attempt := 0; ; attempt++ {
		err := db.Create(&donation).Error
		if err == nil {
			break
		}
		if isDuplicateKey(err) && attempt < 2 {
			donation.ID = 0
			transactionID = utils.GenerateTransactionID()
			donation.TransactionID = transactionID
			continue
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create donation"})
		return
	}

	backendURL := os.Getenv("BACKEND_URL")
	session, err := c.Gateway.InitiatePayment(r.Context(), utils.InitiateRequest{
		TransactionID: transactionID,
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		SuccessURL:    backendURL + "/api/payments/success/" + transactionID,
		FailURL:       backendURL + "/api/payments/fail/" + transactionID,
		CancelURL:     backendURL + "/api/payments/cancel/" + transactionID,
		IPNURL:        backendURL + "/api/payments/webhook",
		CustomerName:  req.DonorName,
		CustomerEmail: donation.DonorEmail,
		CustomerPhone: req.DonorPhone,
		ProductName:   "Donation for " + project.Title,
	})
	if err != nil {
		log.Printf("[donations] gateway initiation failed tran_id=%s: %v", transactionID, err)
		msg := "Payment gateway is unavailable, please try again later"
		if errors.Is(err, utils.ErrGatewayRejected) {
			// the gateway saw the request and declined it; nothing to reconcile
			_, _ = models.MarkDonationTerminal(db, transactionID, models.DonationFailed)
			msg = "Payment gateway rejected the request"
		}
		// on transport failure the donation stays pending; the reconciliation
		// sweep settles it once the gateway answers again
		utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: msg})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Payment session created",
		Data: map[string]interface{}{
			"transaction_id": transactionID,
			"gateway_url":    session.GatewayPageURL,
			"amount":         donation.Amount,
			"admin_fee":      donation.AdminFee,
			"net_amount":     donation.NetAmount,
			"currency":       donation.Currency,
		},
	})
}

// isDuplicateKey reports whether an insert failed on a unique index, either as
// gorm's translated error or as the raw MySQL 1062 duplicate-entry code.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
