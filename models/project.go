package models

import "time"

// Project statuses as reported by the project service. The payment core only
// accepts donations for active or funded projects.
const (
	ProjectDraft  = "draft"
	ProjectActive = "active"
	ProjectFunded = "funded"
	ProjectClosed = "closed"
)

// Project is owned by the project management side of the platform; the payment
// core reads it for existence, ownership and reporting, and only ever touches
// current_amount / backer_count through donation finalization.
type Project struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatorID     uint      `gorm:"not null;index" json:"creator_id"`
	Title         string    `gorm:"size:191;not null" json:"title"`
	Slug          string    `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Category      string    `gorm:"size:100" json:"category"`
	TargetAmount  float64   `gorm:"type:decimal(15,2);not null" json:"target_amount"`
	CurrentAmount float64   `gorm:"type:decimal(15,2);not null;default:0.00" json:"current_amount"`
	BackerCount   int64     `gorm:"not null;default:0" json:"backer_count"`
	Status        string    `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// AcceptsDonations reports whether the project can currently take money.
func (p *Project) AcceptsDonations() bool {
	return p.IsActive && (p.Status == ProjectActive || p.Status == ProjectFunded)
}

// FundingProgress returns the percentage of the target raised so far.
func (p *Project) FundingProgress() float64 {
	if p.TargetAmount <= 0 {
		return 0
	}
	return p.CurrentAmount / p.TargetAmount * 100
}
