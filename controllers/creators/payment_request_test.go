package creators

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

// A payout request without complete bank details must fail validation before
// anything reaches the database.
func TestCreatePaymentRequest_RequiresBankDetails(t *testing.T) {
	err := utils.ValidateStruct(&CreatePaymentRequest{ProjectID: 1, Amount: 100})
	if err == nil {
		t.Fatal("empty bank details should be rejected")
	}
	if !strings.Contains(err.Error(), "AccountHolder") {
		t.Fatalf("expected AccountHolder to be flagged first, got %v", err)
	}

	err = utils.ValidateStruct(&CreatePaymentRequest{
		ProjectID: 1,
		Amount:    100,
		BankDetails: models.BankDetails{
			AccountHolder: "Test Creator",
			BankName:      "Test Bank",
			AccountNumber: "0123456789",
			BranchName:    "Main",
		},
	})
	if err != nil {
		t.Fatalf("complete bank details should pass, got %v", err)
	}
}

func TestCreatePaymentRequest_AccountNumberDigitsOnly(t *testing.T) {
	err := utils.ValidateStruct(&CreatePaymentRequest{
		ProjectID: 1,
		Amount:    100,
		BankDetails: models.BankDetails{
			AccountHolder: "Test Creator",
			BankName:      "Test Bank",
			AccountNumber: "01-23-456",
			BranchName:    "Main",
		},
	})
	if err == nil || !strings.Contains(err.Error(), "AccountNumber") {
		t.Fatalf("expected AccountNumber digits failure, got %v", err)
	}
}

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
	if err := db.AutoMigrate(&models.Project{}, &models.Donation{}, &models.PaymentRequest{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	cleanup := func() {
		db.Exec("DELETE FROM donations")
		db.Exec("DELETE FROM payment_requests")
		db.Exec("DELETE FROM projects")
	}
	cleanup()
	t.Cleanup(cleanup)
	return db
}

// Two simultaneous payout requests for the same project race through the
// locked check-and-insert; exactly one may come out pending.
func TestCreate_ConcurrentRequestsSingleWinner(t *testing.T) {
	db := testDB(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	project := &models.Project{
		CreatorID:    7,
		Title:        "Race Project",
		Slug:         "race-project",
		TargetAmount: 100000,
		Status:       models.ProjectActive,
		IsActive:     true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	donation := &models.Donation{
		TransactionID: "PG_RACE_1",
		ProjectID:     project.ID,
		DonorName:     "Donor",
		DonorEmail:    "donor@example.com",
		DonorPhone:    "01700000000",
		Amount:        1000,
		AdminFee:      50,
		NetAmount:     950,
		Currency:      "BDT",
		PaymentStatus: models.DonationSuccess,
		RewardStatus:  models.RewardNone,
	}
	if err := db.Create(donation).Error; err != nil {
		t.Fatalf("seed donation: %v", err)
	}

	body := fmt.Sprintf(`{"project_id":%d,"amount":200,"bank_details":{"account_holder":"Test Creator","bank_name":"Test Bank","account_number":"0123456789","branch_name":"Main"}}`, project.ID)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/payment-requests", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), utils.UserIDKey, uint(7)))
			rec := httptest.NewRecorder()
			Create(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	sort.Ints(codes)
	if codes[0] != http.StatusCreated || codes[1] != http.StatusConflict {
		t.Fatalf("codes = %v, want exactly one 201 and one 409", codes)
	}

	var pending int64
	if err := db.Model(&models.PaymentRequest{}).
		Where("project_id = ? AND status = ?", project.ID, models.PaymentRequestPending).
		Count(&pending).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending requests = %d, want 1", pending)
	}
}
