package admins

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/mux"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afifmansib123/ModernApp-2-Pujigori/database"
	"github.com/afifmansib123/ModernApp-2-Pujigori/models"
	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

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
	if err := db.AutoMigrate(&models.PaymentRequest{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	cleanup := func() {
		db.Exec("DELETE FROM payment_requests")
	}
	cleanup()
	t.Cleanup(cleanup)
	return db
}

func adminAction(t *testing.T, handler http.HandlerFunc, requestID uint) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/payment-requests/action", nil)
	req = req.WithContext(context.WithValue(req.Context(), utils.AdminIDKey, uint(1)))
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprint(requestID)})
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// Acting on a request that already left the required source state is a
// conflict with its current state, not a validation problem.
func TestAdminActions_OutOfStateConflict(t *testing.T) {
	db := testDB(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	paid := &models.PaymentRequest{
		CreatorID:       7,
		ProjectID:       1,
		RequestedAmount: 200,
		NetAmount:       200,
		Status:          models.PaymentRequestPaid,
		BankDetails: models.BankDetails{
			AccountHolder: "Test Creator",
			BankName:      "Test Bank",
			AccountNumber: "0123456789",
			BranchName:    "Main",
		},
	}
	if err := db.Create(paid).Error; err != nil {
		t.Fatalf("seed paid request: %v", err)
	}

	if rec := adminAction(t, ApprovePaymentRequest, paid.ID); rec.Code != http.StatusConflict {
		t.Fatalf("approve on paid: code = %d, want 409", rec.Code)
	}
	if rec := adminAction(t, MarkPaymentRequestPaid, paid.ID); rec.Code != http.StatusConflict {
		t.Fatalf("mark-paid on paid: code = %d, want 409", rec.Code)
	}

	var reloaded models.PaymentRequest
	if err := db.First(&reloaded, paid.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.Status != models.PaymentRequestPaid {
		t.Fatalf("status = %s, want paid untouched", reloaded.Status)
	}
	if reloaded.ProcessedBy != nil {
		t.Fatalf("processed_by = %v, want untouched", *reloaded.ProcessedBy)
	}
}
