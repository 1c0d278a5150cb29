package models

import (
	"time"

	"gorm.io/gorm"
)

// Donation payment statuses. A donation is created as Pending and moves to
// exactly one terminal status via a validated gateway notification.
const (
	DonationPending   = "pending"
	DonationSuccess   = "success"
	DonationFailed    = "failed"
	DonationCancelled = "cancelled"
)

// Reward redemption statuses.
const (
	RewardNone     = "none"
	RewardPending  = "pending"
	RewardRedeemed = "redeemed"
)

// RewardRedemptionWindow is how long after the donation a reward stays redeemable.
const RewardRedemptionWindow = 30 * 24 * time.Hour

type Donation struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TransactionID    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	ProjectID        uint       `gorm:"not null;index" json:"project_id"`
	DonorID          *uint      `gorm:"index" json:"donor_id,omitempty"`
	DonorName        string     `gorm:"size:100;not null" json:"donor_name"`
	DonorEmail       string     `gorm:"size:191;not null" json:"donor_email"`
	DonorPhone       string     `gorm:"size:32;not null" json:"donor_phone"`
	DonorAddress     string     `gorm:"size:255" json:"-"`
	DonorDisplayName *string    `gorm:"size:100" json:"donor_display_name,omitempty"`
	Amount           float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	AdminFee         float64    `gorm:"type:decimal(15,2);not null;default:0.00" json:"admin_fee"`
	NetAmount        float64    `gorm:"type:decimal(15,2);not null" json:"net_amount"`
	Currency         string     `gorm:"type:varchar(8);not null;default:'BDT'" json:"currency"`
	PaymentStatus    string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"payment_status"`
	ValidationID     *string    `gorm:"type:varchar(64)" json:"validation_id,omitempty"`
	BankTranID       *string    `gorm:"type:varchar(191)" json:"bank_tran_id,omitempty"`
	CardType         *string    `gorm:"type:varchar(32)" json:"card_type,omitempty"`
	CardNo           *string    `gorm:"type:varchar(32)" json:"card_no,omitempty"`
	CardIssuer       *string    `gorm:"type:varchar(64)" json:"card_issuer,omitempty"`
	CardBrand        *string    `gorm:"type:varchar(32)" json:"card_brand,omitempty"`
	RewardID         *uint      `gorm:"index" json:"reward_id,omitempty"`
	RewardStatus     string     `gorm:"type:varchar(16);not null;default:'none'" json:"reward_status"`
	RewardRedeemedAt *time.Time `json:"reward_redeemed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Project          *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}

// IsTerminal reports whether the donation already reached a final payment status.
func (d *Donation) IsTerminal() bool {
	return d.PaymentStatus != DonationPending
}

// RewardRedeemable reports whether the attached reward can still be redeemed.
// The reward must exist, the donation must have succeeded, the reward must not
// have been redeemed already, and the redemption window must not be over.
func (d *Donation) RewardRedeemable(now time.Time) bool {
	if d.RewardID == nil {
		return false
	}
	if d.PaymentStatus != DonationSuccess {
		return false
	}
	if d.RewardStatus != RewardPending {
		return false
	}
	return now.Sub(d.CreatedAt) <= RewardRedemptionWindow
}

// GatewayMetadata carries the gateway-confirmed details recorded when a
// pending donation is finalized as successful.
type GatewayMetadata struct {
	ValidationID string
	BankTranID   string
	CardType     string
	CardNo       string
	CardIssuer   string
	CardBrand    string
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarkDonationSuccess finalizes a pending donation as successful with a single
// conditional update keyed on the current status, so a duplicate notification
// for the same transaction can never apply its financial effect twice. It also
// rolls the net amount into the project's running total and arms the reward.
// Returns false when the donation was not pending anymore.
func MarkDonationSuccess(db *gorm.DB, transactionID string, meta GatewayMetadata) (bool, error) {
	var applied bool
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"payment_status": DonationSuccess,
			"validation_id":  strPtrOrNil(meta.ValidationID),
			"bank_tran_id":   strPtrOrNil(meta.BankTranID),
			"card_type":      strPtrOrNil(meta.CardType),
			"card_no":        strPtrOrNil(meta.CardNo),
			"card_issuer":    strPtrOrNil(meta.CardIssuer),
			"card_brand":     strPtrOrNil(meta.CardBrand),
		}
		res := tx.Model(&Donation{}).
			Where("transaction_id = ? AND payment_status = ?", transactionID, DonationPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		var d Donation
		if err := tx.Where("transaction_id = ?", transactionID).First(&d).Error; err != nil {
			return err
		}
		if d.RewardID != nil && d.RewardStatus == RewardNone {
			if err := tx.Model(&Donation{}).Where("id = ?", d.ID).
				Update("reward_status", RewardPending).Error; err != nil {
				return err
			}
		}
		return tx.Model(&Project{}).Where("id = ?", d.ProjectID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", d.NetAmount),
				"backer_count":   gorm.Expr("backer_count + 1"),
			}).Error
	})
	return applied, err
}

// MarkDonationTerminal moves a pending donation to failed or cancelled.
// Same compare-and-swap shape as MarkDonationSuccess; no financial effect.
func MarkDonationTerminal(db *gorm.DB, transactionID, status string) (bool, error) {
	if status != DonationFailed && status != DonationCancelled {
		return false, gorm.ErrInvalidValue
	}
	res := db.Model(&Donation{}).
		Where("transaction_id = ? AND payment_status = ?", transactionID, DonationPending).
		Update("payment_status", status)
	return res.RowsAffected > 0, res.Error
}

// DonationStats aggregates successful donations.
type DonationStats struct {
	TotalAmount    float64 `json:"total_amount"`
	TotalNetAmount float64 `json:"total_net_amount"`
	TotalAdminFee  float64 `json:"total_admin_fee"`
	DonationCount  int64   `json:"donation_count"`
}

// DonationStatistics sums successful donations, optionally scoped to a project
// and/or a date range. Always computed fresh from the donation set.
func DonationStatistics(db *gorm.DB, projectID *uint, from, to *time.Time) (DonationStats, error) {
	var stats DonationStats
	q := db.Model(&Donation{}).Where("payment_status = ?", DonationSuccess)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	err := q.Select(
		"COALESCE(SUM(amount), 0) as total_amount, " +
			"COALESCE(SUM(net_amount), 0) as total_net_amount, " +
			"COALESCE(SUM(admin_fee), 0) as total_admin_fee, " +
			"COUNT(*) as donation_count").
		Scan(&stats).Error
	return stats, err
}

// AvailableAmount returns the funds a creator can still withdraw from a
// project: the net amount of all successful donations minus everything already
// claimed by payment requests that were not rejected. Derived fresh on every
// call; nothing keeps a running balance that could drift on late webhooks.
func AvailableAmount(db *gorm.DB, projectID uint) (float64, error) {
	var raised float64
	err := db.Model(&Donation{}).
		Where("project_id = ? AND payment_status = ?", projectID, DonationSuccess).
		Select("COALESCE(SUM(net_amount), 0)").
		Scan(&raised).Error
	if err != nil {
		return 0, err
	}

	var claimed float64
	err = db.Model(&PaymentRequest{}).
		Where("project_id = ? AND status != ?", projectID, PaymentRequestRejected).
		Select("COALESCE(SUM(requested_amount), 0)").
		Scan(&claimed).Error
	if err != nil {
		return 0, err
	}

	available := raised - claimed
	if available < 0 {
		available = 0
	}
	return available, nil
}
