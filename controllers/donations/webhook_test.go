package donations

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/afifmansib123/ModernApp-2-Pujigori/utils"
)

func testController() *Controller {
	return NewController(&utils.SSLCommerzClient{
		StoreID:       "teststore",
		StorePassword: "testpass",
		BaseURL:       "http://unused.invalid",
		IsSandbox:     true,
		HTTPClient:    &http.Client{Timeout: time.Second},
	})
}

func postIPN(t *testing.T, c *Controller, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	c.Webhook(rec, req)
	return rec
}

func TestWebhook_MissingFields(t *testing.T) {
	c := testController()

	form := url.Values{}
	form.Set("tran_id", "PG_TEST_ABC123")
	form.Set("status", "VALID")

	rec := postIPN(t, c, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	for _, f := range []string{"val_id", "amount", "verify_sign"} {
		if !strings.Contains(body, f) {
			t.Errorf("response should name missing field %q, got %s", f, body)
		}
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	c := testController()

	form := url.Values{}
	form.Set("tran_id", "PG_TEST_ABC123")
	form.Set("val_id", "VAL123")
	form.Set("amount", "1500.00")
	form.Set("currency", "BDT")
	form.Set("status", "VALID")
	form.Set("verify_sign", "deadbeefdeadbeefdeadbeefdeadbeef")

	rec := postIPN(t, c, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "signature") {
		t.Errorf("response should mention the signature, got %s", rec.Body.String())
	}
}

func TestTranIDMatches(t *testing.T) {
	cases := []struct {
		reported string
		expected string
		ok       bool
	}{
		{"PG_TEST_ABC123", "PG_TEST_ABC123", true},
		{"PG_OTHER_XYZ789", "PG_TEST_ABC123", false},
		{"", "PG_TEST_ABC123", false}, // validator record without a tran_id settles nothing
	}
	for _, tc := range cases {
		if got := tranIDMatches(tc.reported, tc.expected); got != tc.ok {
			t.Errorf("tranIDMatches(%q, %q) = %v, want %v", tc.reported, tc.expected, got, tc.ok)
		}
	}
}

func TestAmountMatches(t *testing.T) {
	cases := []struct {
		reported string
		stored   float64
		ok       bool
	}{
		{"1500.00", 1500, true},
		{"1500.50", 1500, true}, // gateway-side rounding tolerance
		{"1502.00", 1500, false},
		{"abc", 1500, false},
		{"", 1500, false},
	}
	for _, tc := range cases {
		if got := amountMatches(tc.reported, tc.stored); got != tc.ok {
			t.Errorf("amountMatches(%q, %v) = %v, want %v", tc.reported, tc.stored, got, tc.ok)
		}
	}
}
