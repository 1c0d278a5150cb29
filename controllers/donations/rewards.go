package donations

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// RedeemReward marks a donation's reward as redeemed. Only the donor who made
// the donation can redeem, the donation must have succeeded, and the
// redemption window must still be open. The flip is a conditional update so a
// double-submit cannot redeem twice.
func (c *Controller) RedeemReward(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	var donation models.Donation
	if err := db.Where("transaction_id = ?", transactionID).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Donation not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong"})
		return
	}

	if donation.DonorID == nil || *donation.DonorID != uid {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "This donation does not belong to you"})
		return
	}

	now := time.Now()
	if !donation.RewardRedeemable(now) {
		msg := "Reward cannot be redeemed"
		if donation.RewardStatus == models.RewardRedeemed {
			msg = "Reward already redeemed"
		} else if donation.RewardID != nil && now.Sub(donation.CreatedAt) > models.RewardRedemptionWindow {
			msg = "Reward redemption window has expired"
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: msg})
		return
	}

	res := db.Model(&models.Donation{}).
		Where("id = ? AND reward_status = ?", donation.ID, models.RewardPending).
		Updates(map[string]interface{}{
			"reward_status":      models.RewardRedeemed,
			"reward_redeemed_at": now,
		})
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to redeem reward"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Reward already redeemed"})
		return
	}

	if err := db.Model(&models.Reward{}).Where("id = ?", donation.RewardID).
		Update("claimed_count", gorm.Expr("claimed_count + 1")).Error; err != nil {
		// redemption stands; the claimed counter is advisory
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Reward redeemed"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Reward redeemed"})
}
