package admins

import (
	"net/http"
	"strconv"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// ListDonations returns donations with optional status / project / search
// filters, newest first, paginated.
func ListDonations(w http.ResponseWriter, r *http.Request) {
	q := database.DB.Model(&models.Donation{}).Preload("Project")

	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("payment_status = ?", status)
	}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("transaction_id LIKE ? OR donor_name LIKE ? OR donor_email LIKE ?", like, like, like)
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

	var donations []models.Donation
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&donations).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Donations",
		Data: map[string]interface{}{
			"donations": donations,
			"total":     total,
			"page":      page,
			"per_page":  perPage,
		},
	})
}
