package lib

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"tenanthub/src/types"
	"time"

	"github.com/tidwall/gjson"
)

// BkashClient drives the tokenized-checkout wallet rail: grant a token,
// create a payment, then execute it. Every call uses a bounded timeout so a
// slow gateway surfaces as ErrGatewayTimeout instead of hanging the request.
type BkashClient struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Username  string
	Password  string

	http    *http.Client
	idToken string
	tokenAt time.Time
}

var bkashClient *BkashClient

func GetBkashClient() *BkashClient {
	if bkashClient != nil {
		return bkashClient
	}
	c := &BkashClient{
		BaseURL:   os.Getenv("BKASH_BASE_URL"),
		AppKey:    os.Getenv("BKASH_APP_KEY"),
		AppSecret: os.Getenv("BKASH_APP_SECRET"),
		Username:  os.Getenv("BKASH_USERNAME"),
		Password:  os.Getenv("BKASH_PASSWORD"),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	bkashClient = c
	return c
}

func NewBkashClient(c *BkashClient) {
	bkashClient = c
}

// NewBkashClientForURL builds a client against an arbitrary endpoint with a
// caller-chosen timeout. Used by tests against a stub gateway.
func NewBkashClientForURL(baseURL string, timeout time.Duration) *BkashClient {
	return &BkashClient{
		BaseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *BkashClient) post(path string, body map[string]any, authed bool) (string, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authed {
		req.Header.Set("Authorization", c.idToken)
		req.Header.Set("X-App-Key", c.AppKey)
	} else {
		req.Header.Set("username", c.Username)
		req.Header.Set("password", c.Password)
	}
	res, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return "", types.ErrGatewayTimeout
		}
		return "", err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode >= 500 {
		return "", &types.PaymentFailedError{Reason: fmt.Sprintf("gateway returned %d", res.StatusCode)}
	}
	return string(raw), nil
}

func (c *BkashClient) grantToken() error {
	if c.idToken != "" && time.Since(c.tokenAt) < 50*time.Minute {
		return nil
	}
	raw, err := c.post("/tokenized/checkout/token/grant", map[string]any{
		"app_key":    c.AppKey,
		"app_secret": c.AppSecret,
	}, false)
	if err != nil {
		return err
	}
	token := gjson.Get(raw, "id_token").String()
	if token == "" {
		return &types.PaymentFailedError{Reason: "gateway did not grant a token"}
	}
	c.idToken = token
	c.tokenAt = time.Now()
	return nil
}

// CreatePayment opens a wallet payment for the advance amount and returns the
// gateway's payment id.
func (c *BkashClient) CreatePayment(amount float64, payerNumber string, invoice string) (string, error) {
	if err := c.grantToken(); err != nil {
		return "", err
	}
	raw, err := c.post("/tokenized/checkout/create", map[string]any{
		"mode":                  "0011",
		"payerReference":        payerNumber,
		"amount":                fmt.Sprintf("%.2f", amount),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": invoice,
	}, true)
	if err != nil {
		return "", err
	}
	paymentID := gjson.Get(raw, "paymentID").String()
	if paymentID == "" {
		reason := gjson.Get(raw, "statusMessage").String()
		if reason == "" {
			reason = "gateway rejected the create request"
		}
		return "", &types.PaymentFailedError{Reason: reason}
	}
	return paymentID, nil
}

// ExecutePayment finalizes a created payment. A non-Completed transaction
// status is a gateway-reported failure, returned with its reason.
func (c *BkashClient) ExecutePayment(paymentID string) (trxID string, err error) {
	if err := c.grantToken(); err != nil {
		return "", err
	}
	raw, err := c.post("/tokenized/checkout/execute", map[string]any{
		"paymentID": paymentID,
	}, true)
	if err != nil {
		return "", err
	}
	status := gjson.Get(raw, "transactionStatus").String()
	if status != "Completed" {
		reason := gjson.Get(raw, "statusMessage").String()
		if reason == "" {
			reason = fmt.Sprintf("transaction status %q", status)
		}
		log.Printf("[BkashExecute] payment %s failed: %s\n", paymentID, reason)
		return "", &types.PaymentFailedError{Reason: reason}
	}
	return gjson.Get(raw, "trxID").String(), nil
}
