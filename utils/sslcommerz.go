package utils

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	sslczSandboxBaseURL    = "https://sandbox.sslcommerz.com"
	sslczLiveBaseURL       = "https://securepay.sslcommerz.com"
	sslczInitiatePath      = "/gwprocess/v4/api.php"
	sslczValidationPath    = "/validator/api/validationserverAPI.php"
	sslczTransactionPath   = "/validator/api/merchantTransIDvalidationAPI.php"
	sslczRequestTimeout    = 30 * time.Second
	MinDonationAmount      = 10
	MaxDonationAmount      = 500000
)

var (
	// ErrGatewayUnavailable marks transport failures talking to SSLCommerz.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected marks requests SSLCommerz answered but declined.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

// SSLCommerzClient talks to the SSLCommerz v4 gateway. Construct it with
// NewSSLCommerzClient; tests may override BaseURL and HTTPClient.
type SSLCommerzClient struct {
	StoreID       string
	StorePassword string
	BaseURL       string
	IsSandbox     bool
	HTTPClient    *http.Client
}

// NewSSLCommerzClient builds a client from SSLCOMMERZ_* environment variables.
func NewSSLCommerzClient() (*SSLCommerzClient, error) {
	storeID := os.Getenv("SSLCOMMERZ_STORE_ID")
	storePassword := os.Getenv("SSLCOMMERZ_STORE_PASSWORD")
	if storeID == "" || storePassword == "" {
		return nil, fmt.Errorf("SSLCOMMERZ_STORE_ID and SSLCOMMERZ_STORE_PASSWORD are required")
	}

	sandbox := os.Getenv("SSLCOMMERZ_IS_SANDBOX") != "false"
	baseURL := sslczLiveBaseURL
	if sandbox {
		baseURL = sslczSandboxBaseURL
	}
	if override := os.Getenv("SSLCOMMERZ_BASE_URL"); override != "" {
		baseURL = override
	}

	return &SSLCommerzClient{
		StoreID:       storeID,
		StorePassword: storePassword,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		IsSandbox:     sandbox,
		HTTPClient:    &http.Client{Timeout: sslczRequestTimeout},
	}, nil
}

// IsValidAmount reports whether amount falls inside the gateway's per
// transaction bounds (10 to 500000 BDT inclusive).
func IsValidAmount(amount float64) bool {
	return amount >= MinDonationAmount && amount <= MaxDonationAmount
}

// FormatAmount renders an amount the way the gateway expects it.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(RoundFloat(amount, 2), 'f', 2, 64)
}

// InitiateRequest carries everything needed to open a gateway session.
type InitiateRequest struct {
	TransactionID string
	Amount        float64
	Currency      string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ProductName   string
	ProductCategory string
}

// InitiateResponse is the subset of the session response we act on.
type InitiateResponse struct {
	Status             string `json:"status"`
	FailedReason       string `json:"failedreason"`
	SessionKey         string `json:"sessionkey"`
	GatewayPageURL     string `json:"GatewayPageURL"`
	RedirectGatewayURL string `json:"redirectGatewayURL"`
}

// InitiatePayment opens a payment session and returns the hosted checkout URL.
func (c *SSLCommerzClient) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "BDT"
	}

	form := url.Values{}
	form.Set("store_id", c.StoreID)
	form.Set("store_passwd", c.StorePassword)
	form.Set("total_amount", FormatAmount(req.Amount))
	form.Set("currency", currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("ipn_url", req.IPNURL)
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", defaultString(req.ProductCategory, "Donation"))
	form.Set("product_profile", "non-physical-goods")
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_add1", "N/A")
	form.Set("cus_city", "N/A")
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", req.CustomerPhone)

	body, err := c.postForm(ctx, c.BaseURL+sslczInitiatePath, form)
	if err != nil {
		return nil, err
	}

	var out InitiateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: parse session response: %v", ErrGatewayUnavailable, err)
	}
	if !strings.EqualFold(out.Status, "SUCCESS") {
		reason := out.FailedReason
		if reason == "" {
			reason = out.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, reason)
	}
	if out.GatewayPageURL == "" {
		return nil, fmt.Errorf("%w: session missing gateway page URL", ErrGatewayRejected)
	}
	return &out, nil
}

// ValidationResponse is the validator API answer for a val_id lookup.
type ValidationResponse struct {
	Status       string `json:"status"`
	TranDate     string `json:"tran_date"`
	TranID       string `json:"tran_id"`
	ValID        string `json:"val_id"`
	Amount       string `json:"amount"`
	StoreAmount  string `json:"store_amount"`
	Currency     string `json:"currency"`
	BankTranID   string `json:"bank_tran_id"`
	CardType     string `json:"card_type"`
	CardNo       string `json:"card_no"`
	CardIssuer   string `json:"card_issuer"`
	CardBrand    string `json:"card_brand"`
	RiskLevel    string `json:"risk_level"`
	RiskTitle    string `json:"risk_title"`
}

// Verified reports whether the validator confirmed the payment. VALIDATED
// means an already validated transaction was re-checked; both count.
func (v *ValidationResponse) Verified() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

// ValidateTransaction confirms a payment against the validator API using the
// val_id delivered in the IPN. The transaction id and amount we expect are
// passed along so the validator can refuse a val_id minted for another order.
func (c *SSLCommerzClient) ValidateTransaction(ctx context.Context, valID, tranID string, amount float64) (*ValidationResponse, error) {
	if valID == "" {
		return nil, fmt.Errorf("%w: empty val_id", ErrGatewayRejected)
	}

	q := url.Values{}
	q.Set("val_id", valID)
	q.Set("store_id", c.StoreID)
	q.Set("store_passwd", c.StorePassword)
	q.Set("format", "json")
	// the validator cross-checks these against its own record for the val_id
	if tranID != "" {
		q.Set("v1", tranID)
	}
	if amount > 0 {
		q.Set("v2", FormatAmount(amount))
	}

	body, err := c.get(ctx, c.BaseURL+sslczValidationPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out ValidationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: parse validation response: %v", ErrGatewayUnavailable, err)
	}
	return &out, nil
}

// QueryResponse answers a transaction status lookup by tran_id.
type QueryResponse struct {
	APIConnect string `json:"APIConnect"`
	Status     string `json:"status"`
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Amount     string `json:"amount"`
	BankTranID string `json:"bank_tran_id"`
	RiskLevel  string `json:"risk_level"`
}

// QueryTransaction looks up gateway-side status by merchant transaction id.
// Used by reconciliation to settle donations stuck in pending.
func (c *SSLCommerzClient) QueryTransaction(ctx context.Context, transactionID string) (*QueryResponse, error) {
	q := url.Values{}
	q.Set("tran_id", transactionID)
	q.Set("store_id", c.StoreID)
	q.Set("store_passwd", c.StorePassword)
	q.Set("format", "json")

	body, err := c.get(ctx, c.BaseURL+sslczTransactionPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	// The merchant lookup wraps results in an element array when multiple
	// attempts share a tran_id; take the newest entry.
	var wrapped struct {
		APIConnect string          `json:"APIConnect"`
		Element    []QueryResponse `json:"element"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Element) > 0 {
		out := wrapped.Element[0]
		out.APIConnect = wrapped.APIConnect
		return &out, nil
	}

	var out QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: parse query response: %v", ErrGatewayUnavailable, err)
	}
	return &out, nil
}

// RefundResponse answers a refund initiation.
type RefundResponse struct {
	APIConnect   string `json:"APIConnect"`
	BankTranID   string `json:"bank_tran_id"`
	TransID      string `json:"trans_id"`
	RefundRefID  string `json:"refund_ref_id"`
	Status       string `json:"status"`
	ErrorReason  string `json:"errorReason"`
}

// RefundTransaction asks the gateway to refund a settled payment.
func (c *SSLCommerzClient) RefundTransaction(ctx context.Context, bankTranID, refundRef, remarks string, amount float64) (*RefundResponse, error) {
	if bankTranID == "" {
		return nil, fmt.Errorf("%w: empty bank_tran_id", ErrGatewayRejected)
	}

	q := url.Values{}
	q.Set("bank_tran_id", bankTranID)
	q.Set("refund_amount", FormatAmount(amount))
	q.Set("refund_remarks", remarks)
	q.Set("refe_id", refundRef)
	q.Set("store_id", c.StoreID)
	q.Set("store_passwd", c.StorePassword)
	q.Set("format", "json")

	body, err := c.get(ctx, c.BaseURL+sslczTransactionPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out RefundResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: parse refund response: %v", ErrGatewayUnavailable, err)
	}
	if !strings.EqualFold(out.Status, "success") {
		reason := out.ErrorReason
		if reason == "" {
			reason = out.Status
		}
		return nil, fmt.Errorf("%w: refund %s", ErrGatewayRejected, reason)
	}
	return &out, nil
}

// VerifyIPNSignature recomputes the gateway's MD5 verify_sign over the store
// password and the notified fields, comparing case-insensitively.
func (c *SSLCommerzClient) VerifyIPNSignature(p IPNPayload) bool {
	if p.VerifySign == "" {
		return false
	}
	raw := c.StorePassword + p.ValID + c.StoreID + p.Amount + p.Currency + p.TranID + p.Status
	sum := md5.Sum([]byte(raw))
	expected := hex.EncodeToString(sum[:])
	return strings.EqualFold(expected, p.VerifySign)
}

// IPNPayload is the form-encoded instant payment notification body.
type IPNPayload struct {
	TranID     string
	ValID      string
	Amount     string
	Currency   string
	Status     string
	BankTranID string
	CardType   string
	CardIssuer string
	VerifySign string
	VerifyKey  string
}

// IPNFromForm extracts the IPN fields from a parsed form body.
func IPNFromForm(form url.Values) IPNPayload {
	return IPNPayload{
		TranID:     form.Get("tran_id"),
		ValID:      form.Get("val_id"),
		Amount:     form.Get("amount"),
		Currency:   form.Get("currency"),
		Status:     form.Get("status"),
		BankTranID: form.Get("bank_tran_id"),
		CardType:   form.Get("card_type"),
		CardIssuer: form.Get("card_issuer"),
		VerifySign: form.Get("verify_sign"),
		VerifyKey:  form.Get("verify_key"),
	}
}

// MissingFields lists the required IPN fields that are absent.
func (p IPNPayload) MissingFields() []string {
	var missing []string
	if p.TranID == "" {
		missing = append(missing, "tran_id")
	}
	if p.ValID == "" {
		missing = append(missing, "val_id")
	}
	if p.Amount == "" {
		missing = append(missing, "amount")
	}
	if p.Status == "" {
		missing = append(missing, "status")
	}
	if p.VerifySign == "" {
		missing = append(missing, "verify_sign")
	}
	return missing
}

func (c *SSLCommerzClient) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *SSLCommerzClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return c.do(req)
}

func (c *SSLCommerzClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway answered %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: gateway answered %d", ErrGatewayRejected, resp.StatusCode)
	}
	return body, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
