package donations

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

const reconcileBatchSize = 50

// Reconcile sweeps donations stuck in pending and settles them against the
// gateway's transaction query API. Intended to be hit by an external cron;
// guarded by a shared key instead of user auth.
func (c *Controller) Reconcile(w http.ResponseWriter, r *http.Request) {
	cronKey := os.Getenv("CRON_SECRET_KEY")
	if cronKey == "" || r.Header.Get("X-CRON-KEY") != cronKey {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB
	cutoff := time.Now().Add(-30 * time.Minute)

	var stale []models.Donation
	err := db.Where("payment_status = ? AND created_at < ?", models.DonationPending, cutoff).
		Order("created_at ASC").
		Limit(reconcileBatchSize).
		Find(&stale).Error
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	settled := 0
	failed := 0
	skipped := 0
	for _, d := range stale {
		result, err := c.Gateway.QueryTransaction(r.Context(), d.TransactionID)
		if err != nil {
			log.Printf("[reconcile] query failed tran_id=%s: %v", d.TransactionID, err)
			skipped++
			continue
		}

		switch strings.ToUpper(result.Status) {
		case "VALID", "VALIDATED":
			applied, err := models.MarkDonationSuccess(db, d.TransactionID, models.GatewayMetadata{
				ValidationID: result.ValID,
				BankTranID:   result.BankTranID,
			})
			if err != nil {
				log.Printf("[reconcile] settle failed tran_id=%s: %v", d.TransactionID, err)
				skipped++
				continue
			}
			if applied {
				settled++
			}
		case "FAILED", "EXPIRED":
			if _, err := models.MarkDonationTerminal(db, d.TransactionID, models.DonationFailed); err == nil {
				failed++
			}
		case "CANCELLED":
			if _, err := models.MarkDonationTerminal(db, d.TransactionID, models.DonationCancelled); err == nil {
				failed++
			}
		default:
			// still in flight at the gateway, leave it pending
			skipped++
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Reconciliation complete",
		Data: map[string]interface{}{
			"checked": len(stale),
			"settled": settled,
			"closed":  failed,
			"skipped": skipped,
		},
	})
}
