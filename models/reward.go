package models

import (
	"time"

	"gorm.io/gorm"
)

// Reward is a tier a backer unlocks by donating at least MinimumAmount.
type Reward struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProjectID     uint      `json:"project_id" gorm:"index;not null"`
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	MinimumAmount float64   `json:"minimum_amount" gorm:"type:decimal(15,2);not null"`
	Quantity      *int      `json:"quantity"` // nil means unlimited
	ClaimedCount  int       `json:"claimed_count" gorm:"default:0"`
	EstimatedShip *string   `json:"estimated_ship"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Reward) TableName() string {
	return "rewards"
}

// Available reports whether the reward can still be claimed.
func (r *Reward) Available() bool {
	if !r.IsActive {
		return false
	}
	if r.Quantity != nil && r.ClaimedCount >= *r.Quantity {
		return false
	}
	return true
}

// MatchReward returns the highest-tier active reward whose minimum amount
// is covered by the donation amount, or nil when none qualifies.
func MatchReward(db *gorm.DB, projectID uint, amount float64) (*Reward, error) {
	var reward Reward
	err := db.Where("project_id = ? AND is_active = ? AND minimum_amount <= ?", projectID, true, amount).
		Order("minimum_amount DESC").
		First(&reward).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	if !reward.Available() {
		return nil, nil
	}
	return &reward, nil
}
