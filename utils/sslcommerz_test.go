package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testClient(baseURL string) *SSLCommerzClient {
	return &SSLCommerzClient{
		StoreID:       "teststore",
		StorePassword: "testpass",
		BaseURL:       baseURL,
		IsSandbox:     true,
		HTTPClient:    &http.Client{Timeout: 2 * time.Second},
	}
}

func TestInitiatePayment_Success(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sslczInitiatePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"SUCCESS","sessionkey":"SK1","GatewayPageURL":"https://pay.example/session/SK1"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.InitiatePayment(context.Background(), InitiateRequest{
		TransactionID: "PG_TEST_ABC123",
		Amount:        1500,
		CustomerName:  "Test Donor",
		CustomerEmail: "donor@example.com",
		CustomerPhone: "01700000000",
		ProductName:   "Donation",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if resp.GatewayPageURL != "https://pay.example/session/SK1" {
		t.Errorf("gateway URL = %q", resp.GatewayPageURL)
	}
	if gotForm.Get("store_id") != "teststore" {
		t.Errorf("store_id = %q", gotForm.Get("store_id"))
	}
	if gotForm.Get("total_amount") != "1500.00" {
		t.Errorf("total_amount = %q", gotForm.Get("total_amount"))
	}
	if gotForm.Get("currency") != "BDT" {
		t.Errorf("currency = %q", gotForm.Get("currency"))
	}
	if gotForm.Get("tran_id") != "PG_TEST_ABC123" {
		t.Errorf("tran_id = %q", gotForm.Get("tran_id"))
	}
}

func TestInitiatePayment_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","failedreason":"Store Credential Error"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.InitiatePayment(context.Background(), InitiateRequest{TransactionID: "T1", Amount: 100})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "Store Credential Error") {
		t.Errorf("error should carry the gateway reason, got %v", err)
	}
}

func TestInitiatePayment_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.InitiatePayment(context.Background(), InitiateRequest{TransactionID: "T1", Amount: 100})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestInitiatePayment_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := testClient(srv.URL)
	_, err := c.InitiatePayment(context.Background(), InitiateRequest{TransactionID: "T1", Amount: 100})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestValidateTransaction_Statuses(t *testing.T) {
	cases := []struct {
		status   string
		verified bool
	}{
		{"VALID", true},
		{"VALIDATED", true},
		{"INVALID_TRANSACTION", false},
		{"FAILED", false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("val_id") != "VAL1" {
				t.Errorf("val_id = %q", r.URL.Query().Get("val_id"))
			}
			_, _ = w.Write([]byte(`{"status":"` + tc.status + `","tran_id":"T1","amount":"100.00"}`))
		}))
		c := testClient(srv.URL)
		resp, err := c.ValidateTransaction(context.Background(), "VAL1", "T1", 100)
		srv.Close()
		if err != nil {
			t.Fatalf("ValidateTransaction(%s): %v", tc.status, err)
		}
		if resp.Verified() != tc.verified {
			t.Errorf("status %s: Verified() = %v, want %v", tc.status, resp.Verified(), tc.verified)
		}
	}
}

func TestValidateTransaction_EmptyValID(t *testing.T) {
	c := testClient("http://unused.invalid")
	if _, err := c.ValidateTransaction(context.Background(), "", "T1", 100); !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected for empty val_id, got %v", err)
	}
}

func TestValidateTransaction_SendsExpectedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("v1") != "PG_TEST_ABC123" {
			t.Errorf("v1 = %q, want transaction id", q.Get("v1"))
		}
		if q.Get("v2") != "1500.00" {
			t.Errorf("v2 = %q, want formatted amount", q.Get("v2"))
		}
		_, _ = w.Write([]byte(`{"status":"VALID","tran_id":"PG_TEST_ABC123","amount":"1500.00"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.ValidateTransaction(context.Background(), "VAL1", "PG_TEST_ABC123", 1500); err != nil {
		t.Fatalf("ValidateTransaction: %v", err)
	}
}

func knownPayload() IPNPayload {
	return IPNPayload{
		TranID:     "PG_TEST_ABC123",
		ValID:      "VAL123",
		Amount:     "1500.00",
		Currency:   "BDT",
		Status:     "VALID",
		VerifySign: "25cdf2143fbb3f24bcbab2c3bec5a1d1",
	}
}

func TestVerifyIPNSignature_Golden(t *testing.T) {
	c := testClient("http://unused.invalid")
	if !c.VerifyIPNSignature(knownPayload()) {
		t.Fatal("known-good signature rejected")
	}
}

func TestVerifyIPNSignature_CaseInsensitive(t *testing.T) {
	c := testClient("http://unused.invalid")
	p := knownPayload()
	p.VerifySign = strings.ToUpper(p.VerifySign)
	if !c.VerifyIPNSignature(p) {
		t.Fatal("uppercase signature rejected")
	}
}

func TestVerifyIPNSignature_Mismatch(t *testing.T) {
	c := testClient("http://unused.invalid")

	p := knownPayload()
	p.Amount = "1501.00" // tampered amount
	if c.VerifyIPNSignature(p) {
		t.Fatal("tampered payload accepted")
	}

	p = knownPayload()
	p.VerifySign = ""
	if c.VerifyIPNSignature(p) {
		t.Fatal("empty signature accepted")
	}
}

func TestIPNFromForm_MissingFields(t *testing.T) {
	form := url.Values{}
	form.Set("tran_id", "T1")
	form.Set("status", "VALID")
	p := IPNFromForm(form)

	missing := p.MissingFields()
	want := map[string]bool{"val_id": true, "amount": true, "verify_sign": true}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v", missing)
	}
	for _, f := range missing {
		if !want[f] {
			t.Errorf("unexpected missing field %q", f)
		}
	}

	full := knownPayload()
	if m := full.MissingFields(); len(m) != 0 {
		t.Errorf("complete payload reported missing %v", m)
	}
}

func TestIsValidAmount_Bounds(t *testing.T) {
	cases := []struct {
		amount float64
		ok     bool
	}{
		{9.99, false},
		{10, true},
		{10.01, true},
		{500000, true},
		{500000.01, false},
		{0, false},
		{-50, false},
	}
	for _, tc := range cases {
		if got := IsValidAmount(tc.amount); got != tc.ok {
			t.Errorf("IsValidAmount(%v) = %v, want %v", tc.amount, got, tc.ok)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1500); got != "1500.00" {
		t.Errorf("FormatAmount(1500) = %q", got)
	}
	if got := FormatAmount(99.999); got != "100.00" {
		t.Errorf("FormatAmount(99.999) = %q", got)
	}
}
