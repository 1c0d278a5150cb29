package creators

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

type CreatePaymentRequest struct {
	ProjectID   uint               `json:"project_id"`
	Amount      float64            `json:"amount"`
	BankDetails models.BankDetails `json:"bank_details"`
}

// Create files a payout request against a project's available balance. The
// project row is locked for the duration of the check-and-insert so two
// concurrent requests cannot both pass the one-pending rule or oversubscribe
// the balance.
func Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreatePaymentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Amount <= 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Amount must be positive"})
		return
	}

	db := database.DB
	var created models.PaymentRequest

	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&project, req.ProjectID).Error; err != nil {
			return err
		}
		if project.CreatorID != uid {
			return errNotProjectOwner
		}

		var pendingCount int64
		if err := tx.Model(&models.PaymentRequest{}).
			Where("project_id = ? AND status = ?", project.ID, models.PaymentRequestPending).
			Count(&pendingCount).Error; err != nil {
			return err
		}
		if pendingCount > 0 {
			return models.ErrPendingRequestExists
		}

		available, err := models.AvailableAmount(tx, project.ID)
		if err != nil {
			return err
		}
		if req.Amount > available {
			return models.ErrInsufficientFunds
		}

		// snapshot of the fees withheld on this project's donations so far;
		// informational, the payout itself carries no further deduction
		stats, err := models.DonationStatistics(tx, &project.ID, nil, nil)
		if err != nil {
			return err
		}

		created = models.PaymentRequest{
			CreatorID:        uid,
			ProjectID:        project.ID,
			RequestedAmount:  utils.RoundFloat(req.Amount, 2),
			AdminFeeDeducted: stats.TotalAdminFee,
			NetAmount:        utils.RoundFloat(req.Amount, 2),
			Status:           models.PaymentRequestPending,
			BankDetails:      req.BankDetails,
		}
		return tx.Create(&created).Error
	})

	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
			Success: true,
			Message: "Payment request submitted",
			Data:    created,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Project not found"})
	case errors.Is(err, errNotProjectOwner):
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "You do not own this project"})
	case errors.Is(err, models.ErrPendingRequestExists):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "A pending payment request already exists for this project"})
	case errors.Is(err, models.ErrInsufficientFunds):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Requested amount exceeds available funds"})
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong, please try again"})
	}
}

var errNotProjectOwner = errors.New("project does not belong to creator")

// List returns the authenticated creator's payment requests, newest first.
func List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	q := database.DB.Where("creator_id = ?", uid)
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var requests []models.PaymentRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Payment requests",
		Data:    requests,
	})
}

// Get returns one of the creator's payment requests by id.
func Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request id"})
		return
	}

	var request models.PaymentRequest
	if err := database.DB.Where("id = ? AND creator_id = ?", id, uid).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Payment request not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Payment request",
		Data:    request,
	})
}

// AvailableBalance reports how much the creator can still withdraw from a
// project. Derived fresh, same formula the create path enforces.
func AvailableBalance(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	projectID, err := strconv.ParseUint(mux.Vars(r)["projectId"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid project id"})
		return
	}

	db := database.DB

	var project models.Project
	if err := db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Project not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}
	if project.CreatorID != uid {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "You do not own this project"})
		return
	}

	available, err := models.AvailableAmount(db, project.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Available balance",
		Data: map[string]interface{}{
			"project_id":       project.ID,
			"current_amount":   project.CurrentAmount,
			"available_amount": available,
		},
	})
}
