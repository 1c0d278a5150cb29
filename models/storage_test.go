package models

import (
	"math"
	"os"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens the database named by TEST_DB_DSN, migrates the payment
// tables and wipes them again when the test finishes. Tests that need real
// storage skip when the variable is unset.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Project{}, &Reward{}, &Donation{}, &PaymentRequest{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	cleanup := func() {
		db.Exec("DELETE FROM donations")
		db.Exec("DELETE FROM payment_requests")
		db.Exec("DELETE FROM rewards")
		db.Exec("DELETE FROM projects")
		db.Exec("DELETE FROM users")
	}
	cleanup()
	t.Cleanup(cleanup)
	return db
}

func seedProject(t *testing.T, db *gorm.DB, slug string) *Project {
	t.Helper()
	p := &Project{
		CreatorID:    7,
		Title:        "Test Project",
		Slug:         slug,
		TargetAmount: 100000,
		Status:       ProjectActive,
		IsActive:     true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func seedDonation(t *testing.T, db *gorm.DB, projectID uint, tranID, status string, amount, fee, net float64) *Donation {
	t.Helper()
	d := &Donation{
		TransactionID: tranID,
		ProjectID:     projectID,
		DonorName:     "Donor",
		DonorEmail:    "donor@example.com",
		DonorPhone:    "01700000000",
		Amount:        amount,
		AdminFee:      fee,
		NetAmount:     net,
		Currency:      "BDT",
		PaymentStatus: status,
		RewardStatus:  RewardNone,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("seed donation %s: %v", tranID, err)
	}
	return d
}

func seedRequest(t *testing.T, db *gorm.DB, projectID uint, status string, amount float64) *PaymentRequest {
	t.Helper()
	pr := &PaymentRequest{
		CreatorID:       7,
		ProjectID:       projectID,
		RequestedAmount: amount,
		NetAmount:       amount,
		Status:          status,
		BankDetails: BankDetails{
			AccountHolder: "Test Creator",
			BankName:      "Test Bank",
			AccountNumber: "0123456789",
			BranchName:    "Main",
		},
	}
	if err := db.Create(pr).Error; err != nil {
		t.Fatalf("seed payment request: %v", err)
	}
	return pr
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// Available funds are the net of successful donations minus everything
// claimed by requests that were not rejected. Pending and failed donations
// contribute nothing; rejected requests release their hold.
func TestAvailableAmount_SubtractsNonRejectedRequests(t *testing.T) {
	db := testDB(t)
	p := seedProject(t, db, "avail-formula")

	seedDonation(t, db, p.ID, "PG_AV_S1", DonationSuccess, 1000, 50, 950)
	seedDonation(t, db, p.ID, "PG_AV_S2", DonationSuccess, 500, 25, 475)
	seedDonation(t, db, p.ID, "PG_AV_P1", DonationPending, 300, 15, 285)
	seedDonation(t, db, p.ID, "PG_AV_F1", DonationFailed, 200, 10, 190)

	seedRequest(t, db, p.ID, PaymentRequestPending, 200)
	seedRequest(t, db, p.ID, PaymentRequestRejected, 300)
	seedRequest(t, db, p.ID, PaymentRequestPaid, 100)

	got, err := AvailableAmount(db, p.ID)
	if err != nil {
		t.Fatalf("AvailableAmount: %v", err)
	}
	// (950 + 475) - (200 + 100)
	if !almostEqual(got, 1125) {
		t.Fatalf("AvailableAmount = %v, want 1125", got)
	}
}

func TestAvailableAmount_FloorsAtZero(t *testing.T) {
	db := testDB(t)
	p := seedProject(t, db, "avail-floor")

	seedDonation(t, db, p.ID, "PG_FL_S1", DonationSuccess, 100, 5, 95)
	seedRequest(t, db, p.ID, PaymentRequestPaid, 500)

	got, err := AvailableAmount(db, p.ID)
	if err != nil {
		t.Fatalf("AvailableAmount: %v", err)
	}
	if got != 0 {
		t.Fatalf("AvailableAmount = %v, want 0", got)
	}
}

// A replayed success notification must not credit the project twice. The
// second call finds the donation no longer pending and applies nothing.
func TestMarkDonationSuccess_ReplayAppliesOnce(t *testing.T) {
	db := testDB(t)
	p := seedProject(t, db, "replay-once")
	seedDonation(t, db, p.ID, "PG_RP_1", DonationPending, 100, 5, 95)

	meta := GatewayMetadata{ValidationID: "VAL_RP_1", BankTranID: "BANK_RP_1"}

	applied, err := MarkDonationSuccess(db, "PG_RP_1", meta)
	if err != nil {
		t.Fatalf("first MarkDonationSuccess: %v", err)
	}
	if !applied {
		t.Fatal("first notification should apply")
	}

	applied, err = MarkDonationSuccess(db, "PG_RP_1", meta)
	if err != nil {
		t.Fatalf("second MarkDonationSuccess: %v", err)
	}
	if applied {
		t.Fatal("replayed notification should be a no-op")
	}

	var d Donation
	if err := db.Where("transaction_id = ?", "PG_RP_1").First(&d).Error; err != nil {
		t.Fatalf("reload donation: %v", err)
	}
	if d.PaymentStatus != DonationSuccess {
		t.Fatalf("payment status = %s, want success", d.PaymentStatus)
	}
	if d.ValidationID == nil || *d.ValidationID != "VAL_RP_1" {
		t.Fatalf("validation id not recorded: %v", d.ValidationID)
	}

	var reloaded Project
	if err := db.First(&reloaded, p.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if !almostEqual(reloaded.CurrentAmount, 95) {
		t.Fatalf("current_amount = %v, want 95 (credited once)", reloaded.CurrentAmount)
	}
	if reloaded.BackerCount != 1 {
		t.Fatalf("backer_count = %d, want 1", reloaded.BackerCount)
	}
}

func TestMarkDonationTerminal_OnlyFromPending(t *testing.T) {
	db := testDB(t)
	p := seedProject(t, db, "terminal-cas")
	seedDonation(t, db, p.ID, "PG_TM_1", DonationSuccess, 100, 5, 95)

	applied, err := MarkDonationTerminal(db, "PG_TM_1", DonationFailed)
	if err != nil {
		t.Fatalf("MarkDonationTerminal: %v", err)
	}
	if applied {
		t.Fatal("settled donation must not be moved to failed")
	}

	var d Donation
	if err := db.Where("transaction_id = ?", "PG_TM_1").First(&d).Error; err != nil {
		t.Fatalf("reload donation: %v", err)
	}
	if d.PaymentStatus != DonationSuccess {
		t.Fatalf("payment status = %s, want success untouched", d.PaymentStatus)
	}
}
