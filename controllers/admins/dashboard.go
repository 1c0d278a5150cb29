package admins

import (
	"net/http"
	"time"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

type DailyAmount struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

type RecentDonation struct {
	TransactionID string    `json:"transaction_id"`
	DonorName     string    `json:"donor_name"`
	ProjectTitle  string    `json:"project_title"`
	Amount        float64   `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

type DashboardStats struct {
	TotalDonations        int64         `json:"total_donations"`
	SuccessfulDonations   int64         `json:"successful_donations"`
	PendingDonations      int64         `json:"pending_donations"`
	TotalRaised           float64       `json:"total_raised"`
	TotalFees             float64       `json:"total_fees"`
	PendingPayoutRequests int64         `json:"pending_payout_requests"`
	PaidOutTotal          float64       `json:"paid_out_total"`
	ActiveProjects        int64         `json:"active_projects"`
	DailyDonations        []DailyAmount `json:"daily_donations"`
	RecentDonations       []RecentDonation `json:"recent_donations"`
}

// GetDashboardStats assembles the numbers the admin landing page shows.
func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	db := database.DB
	var stats DashboardStats
	stats.DailyDonations = make([]DailyAmount, 0)
	stats.RecentDonations = make([]RecentDonation, 0)

	db.Model(&models.Donation{}).Count(&stats.TotalDonations)
	db.Model(&models.Donation{}).Where("payment_status = ?", models.DonationSuccess).Count(&stats.SuccessfulDonations)
	db.Model(&models.Donation{}).Where("payment_status = ?", models.DonationPending).Count(&stats.PendingDonations)

	db.Model(&models.Donation{}).Where("payment_status = ?", models.DonationSuccess).
		Select("COALESCE(SUM(net_amount), 0)").Scan(&stats.TotalRaised)
	db.Model(&models.Donation{}).Where("payment_status = ?", models.DonationSuccess).
		Select("COALESCE(SUM(admin_fee), 0)").Scan(&stats.TotalFees)

	db.Model(&models.PaymentRequest{}).Where("status = ?", models.PaymentRequestPending).Count(&stats.PendingPayoutRequests)
	db.Model(&models.PaymentRequest{}).Where("status = ?", models.PaymentRequestPaid).
		Select("COALESCE(SUM(requested_amount), 0)").Scan(&stats.PaidOutTotal)

	db.Model(&models.Project{}).Where("status = ? AND is_active = ?", models.ProjectActive, true).Count(&stats.ActiveProjects)

	// last 14 days of successful donations
	since := time.Now().AddDate(0, 0, -14)
	db.Model(&models.Donation{}).
		Where("payment_status = ? AND created_at >= ?", models.DonationSuccess, since).
		Select("DATE(created_at) as day, COALESCE(SUM(amount), 0) as amount, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&stats.DailyDonations)

	db.Model(&models.Donation{}).
		Joins("LEFT JOIN projects ON projects.id = donations.project_id").
		Select("donations.transaction_id, donations.donor_name, projects.title as project_title, donations.amount, donations.payment_status, donations.created_at").
		Order("donations.created_at DESC").
		Limit(10).
		Scan(&stats.RecentDonations)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Dashboard statistics",
		Data:    stats,
	})
}
