package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Payment request statuses. pending -> approved -> paid, or pending -> rejected.
const (
	PaymentRequestPending  = "pending"
	PaymentRequestApproved = "approved"
	PaymentRequestRejected = "rejected"
	PaymentRequestPaid     = "paid"
)

var (
	// ErrInvalidTransition is returned when an admin action is applied to a
	// request that is not in the required source status.
	ErrInvalidTransition = errors.New("payment request status does not allow this action")
	// ErrPendingRequestExists is returned when a project already has a pending request.
	ErrPendingRequestExists = errors.New("a pending payment request already exists for this project")
	// ErrInsufficientFunds is returned when the requested amount exceeds the
	// project's available balance.
	ErrInsufficientFunds = errors.New("requested amount exceeds available funds")
)

// BankDetails is the payout destination a creator supplies with a request.
// RoutingNumber is the only optional field.
type BankDetails struct {
	AccountHolder string `gorm:"size:100;not null" json:"account_holder" validate:"required"`
	BankName      string `gorm:"size:100;not null" json:"bank_name" validate:"required"`
	AccountNumber string `gorm:"size:50;not null" json:"account_number" validate:"required,digits"`
	RoutingNumber string `gorm:"size:50" json:"routing_number,omitempty"`
	BranchName    string `gorm:"size:100;not null" json:"branch_name" validate:"required"`
}

type PaymentRequest struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	CreatorID        uint        `gorm:"not null;index" json:"creator_id"`
	ProjectID        uint        `gorm:"not null;index" json:"project_id"`
	RequestedAmount  float64     `gorm:"type:decimal(15,2);not null" json:"requested_amount"`
	AdminFeeDeducted float64     `gorm:"type:decimal(15,2);not null;default:0.00" json:"admin_fee_deducted"`
	NetAmount        float64     `gorm:"type:decimal(15,2);not null" json:"net_amount"`
	Status           string      `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	BankDetails      BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	ProcessedBy      *int64      `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time  `json:"processed_at,omitempty"`
	AdminNotes       *string     `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Project          *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// Transition guards. Pure functions of the current status only.

func (pr *PaymentRequest) CanBeApproved() bool {
	return pr.Status == PaymentRequestPending
}

func (pr *PaymentRequest) CanBeRejected() bool {
	return pr.Status == PaymentRequestPending
}

func (pr *PaymentRequest) CanBeMarkedAsPaid() bool {
	return pr.Status == PaymentRequestApproved
}

// transition applies a guarded status move as a single conditional update so
// two concurrent admin actions cannot both take effect.
func (pr *PaymentRequest) transition(db *gorm.DB, fromStatus, toStatus string, adminID int64, notes string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       toStatus,
		"processed_by": adminID,
		"processed_at": now,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	res := db.Model(&PaymentRequest{}).
		Where("id = ? AND status = ?", pr.ID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	pr.Status = toStatus
	pr.ProcessedBy = &adminID
	pr.ProcessedAt = &now
	if notes != "" {
		pr.AdminNotes = &notes
	}
	return nil
}

// Approve moves a pending request to approved, recording the acting admin.
func (pr *PaymentRequest) Approve(db *gorm.DB, adminID int64, notes string) error {
	if !pr.CanBeApproved() {
		return ErrInvalidTransition
	}
	return pr.transition(db, PaymentRequestPending, PaymentRequestApproved, adminID, notes)
}

// Reject moves a pending request to rejected. The reason is mandatory and is
// stored as the admin note.
func (pr *PaymentRequest) Reject(db *gorm.DB, adminID int64, reason string) error {
	if !pr.CanBeRejected() {
		return ErrInvalidTransition
	}
	return pr.transition(db, PaymentRequestPending, PaymentRequestRejected, adminID, reason)
}

// MarkAsPaid moves an approved request to paid. This is the irreversible
// terminal confirmation that the money left the platform.
func (pr *PaymentRequest) MarkAsPaid(db *gorm.DB, adminID int64, notes string) error {
	if !pr.CanBeMarkedAsPaid() {
		return ErrInvalidTransition
	}
	return pr.transition(db, PaymentRequestApproved, PaymentRequestPaid, adminID, notes)
}

// PaymentRequestStats aggregates payment requests for reporting.
type PaymentRequestStats struct {
	TotalCount     int64              `json:"total_count"`
	TotalRequested float64            `json:"total_requested"`
	TotalPaid      float64            `json:"total_paid"`
	ByStatus       map[string]int64   `json:"by_status"`
	AmountByStatus map[string]float64 `json:"amount_by_status"`
}

// PaymentRequestStatistics sums requests per status over an optional date range.
func PaymentRequestStatistics(db *gorm.DB, from, to *time.Time) (PaymentRequestStats, error) {
	stats := PaymentRequestStats{
		ByStatus:       make(map[string]int64),
		AmountByStatus: make(map[string]float64),
	}
	q := db.Model(&PaymentRequest{})
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	type row struct {
		Status string
		Count  int64
		Amount float64
	}
	var rows []row
	err := q.Select("status, COUNT(*) as count, COALESCE(SUM(requested_amount), 0) as amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.AmountByStatus[r.Status] = r.Amount
		stats.TotalCount += r.Count
		stats.TotalRequested += r.Amount
		if r.Status == PaymentRequestPaid {
			stats.TotalPaid = r.Amount
		}
	}
	return stats, nil
}
