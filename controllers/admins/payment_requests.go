package admins

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/middleware"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// ListPaymentRequests returns payout requests with optional status, project
// and amount-range filters, newest first, paginated.
func ListPaymentRequests(w http.ResponseWriter, r *http.Request) {
	q := database.DB.Model(&models.PaymentRequest{}).Preload("Project")

	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("min_amount"), 64); err == nil {
		q = q.Where("requested_amount >= ?", v)
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("max_amount"), 64); err == nil {
		q = q.Where("requested_amount <= ?", v)
	}

	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	perPage := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v <= 100 {
		perPage = v
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	var requests []models.PaymentRequest
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&requests).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Payment requests",
		Data: map[string]interface{}{
			"requests": requests,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		},
	})
}

func loadPaymentRequest(w http.ResponseWriter, r *http.Request) (*models.PaymentRequest, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request id"})
		return nil, false
	}
	var request models.PaymentRequest
	if err := database.DB.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Payment request not found"})
			return nil, false
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return nil, false
	}
	return &request, true
}

func actingAdmin(w http.ResponseWriter, r *http.Request) (int64, bool) {
	adminID, ok := utils.GetAdminID(r)
	if !ok || adminID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return 0, false
	}
	return int64(adminID), true
}

type DecisionRequest struct {
	Notes string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ApprovePaymentRequest moves a pending request to approved, recording who
// decided. Double approval loses the race and gets a conflict.
func ApprovePaymentRequest(w http.ResponseWriter, r *http.Request) {
	adminID, ok := actingAdmin(w, r)
	if !ok {
		return
	}
	request, ok := loadPaymentRequest(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if r.ContentLength > 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}

	if err := request.Approve(database.DB, adminID, req.Notes); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Request is not pending anymore"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment request approved", Data: request})
}

// RejectPaymentRequest moves a pending request to rejected. A reason is
// required; it is what the creator sees.
func RejectPaymentRequest(w http.ResponseWriter, r *http.Request) {
	adminID, ok := actingAdmin(w, r)
	if !ok {
		return
	}
	request, ok := loadPaymentRequest(w, r)
	if !ok {
		return
	}

	var req RejectRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	if err := request.Reject(database.DB, adminID, req.Reason); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Request is not pending anymore"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment request rejected", Data: request})
}

// MarkPaymentRequestPaid confirms an approved request was disbursed. Terminal.
func MarkPaymentRequestPaid(w http.ResponseWriter, r *http.Request) {
	adminID, ok := actingAdmin(w, r)
	if !ok {
		return
	}
	request, ok := loadPaymentRequest(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if r.ContentLength > 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}

	if err := request.MarkAsPaid(database.DB, adminID, req.Notes); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Request must be approved before it can be marked paid"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment request marked as paid", Data: request})
}
