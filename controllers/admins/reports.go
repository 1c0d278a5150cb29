package admins

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

func parseReportRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			from = t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			to = t.Add(24*time.Hour - time.Second)
		}
	}
	return from, to
}

// trendFormat maps a period query value to a MySQL DATE_FORMAT bucket.
func trendFormat(period string) string {
	switch period {
	case "week":
		return "%x-W%v"
	case "month":
		return "%Y-%m"
	default:
		return "%Y-%m-%d"
	}
}

type TrendBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

type ProjectRevenue struct {
	ProjectID uint    `json:"project_id"`
	Title     string  `json:"title"`
	Revenue   float64 `json:"revenue"`
	Donations int64   `json:"donations"`
}

// GetAnalytics merges donation and payout aggregates over a date range, with
// donation trends bucketed by day, week or month and the top projects by revenue.
func GetAnalytics(w http.ResponseWriter, r *http.Request) {
	from, to := parseReportRange(r)
	db := database.DB

	donationStats, err := models.DonationStatistics(db, nil, &from, &to)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to compute analytics"})
		return
	}
	payoutStats, err := models.PaymentRequestStatistics(db, &from, &to)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to compute analytics"})
		return
	}

	trend := make([]TrendBucket, 0)
	format := trendFormat(r.URL.Query().Get("period"))
	err = db.Model(&models.Donation{}).
		Where("payment_status = ? AND created_at BETWEEN ? AND ?", models.DonationSuccess, from, to).
		Select("DATE_FORMAT(created_at, ?) as bucket, COALESCE(SUM(amount), 0) as amount, COUNT(*) as count", format).
		Group("bucket").
		Order("bucket ASC").
		Scan(&trend).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to compute analytics"})
		return
	}

	topProjects := make([]ProjectRevenue, 0)
	err = db.Model(&models.Donation{}).
		Joins("LEFT JOIN projects ON projects.id = donations.project_id").
		Where("donations.payment_status = ? AND donations.created_at BETWEEN ? AND ?", models.DonationSuccess, from, to).
		Select("donations.project_id, projects.title, COALESCE(SUM(donations.net_amount), 0) as revenue, COUNT(*) as donations").
		Group("donations.project_id, projects.title").
		Order("revenue DESC").
		Limit(10).
		Scan(&topProjects).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to compute analytics"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Analytics",
		Data: map[string]interface{}{
			"from":             from,
			"to":               to,
			"donations":        donationStats,
			"payment_requests": payoutStats,
			"trend":            trend,
			"top_projects":     topProjects,
		},
	})
}

// GetFinancialReport renders successful donations in a range as CSV. When the
// report archive bucket is configured, the CSV is also uploaded and a download
// link returned alongside.
func GetFinancialReport(w http.ResponseWriter, r *http.Request) {
	from, to := parseReportRange(r)
	db := database.DB

	var donations []models.Donation
	err := db.Preload("Project").
		Where("payment_status = ? AND created_at BETWEEN ? AND ?", models.DonationSuccess, from, to).
		Order("created_at ASC").
		Find(&donations).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to build report"})
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"transaction_id", "date", "project", "donor_name", "amount", "admin_fee", "net_amount", "currency", "bank_tran_id"})
	for _, d := range donations {
		projectTitle := ""
		if d.Project != nil {
			projectTitle = d.Project.Title
		}
		_ = cw.Write([]string{
			d.TransactionID,
			d.CreatedAt.Format("2006-01-02 15:04:05"),
			projectTitle,
			d.DonorName,
			fmt.Sprintf("%.2f", d.Amount),
			fmt.Sprintf("%.2f", d.AdminFee),
			fmt.Sprintf("%.2f", d.NetAmount),
			d.Currency,
			utils.GetStringValue(d.BankTranID),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to build report"})
		return
	}

	name := fmt.Sprintf("financial_%s_%s_%d.csv", from.Format("20060102"), to.Format("20060102"), time.Now().Unix())

	if utils.ReportArchiveEnabled() {
		key, err := utils.UploadReport(r.Context(), name, buf.Bytes(), "text/csv")
		if err != nil {
			log.Printf("[reports] archive upload failed: %v", err)
		} else {
			url, err := utils.PresignReportURL(r.Context(), key, 15*time.Minute)
			if err == nil {
				utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
					Success: true,
					Message: "Report archived",
					Data: map[string]interface{}{
						"key":          key,
						"download_url": url,
						"rows":         len(donations),
					},
				})
				return
			}
			log.Printf("[reports] presign failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
