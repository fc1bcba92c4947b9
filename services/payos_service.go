package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/table-order/utils"
)

// Provider status codes
const (
	ProviderCodeSuccess = "00"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// PayOSConfig holds payment provider credentials.
type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
	BaseURL     string
}

// PayOSService talks to the PayOS merchant API.
type PayOSService struct {
	config     *PayOSConfig
	httpClient *http.Client
}

func NewPayOSService(cfg *PayOSConfig) *PayOSService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-merchant.payos.vn"
	}
	return &PayOSService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (ps *PayOSService) ValidateConfig() error {
	if ps.config.ClientID == "" {
		return fmt.Errorf("PAYOS_CLIENT_ID is not set")
	}
	if ps.config.APIKey == "" {
		return fmt.Errorf("PAYOS_API_KEY is not set")
	}
	if ps.config.ChecksumKey == "" {
		return fmt.Errorf("PAYOS_CHECKSUM_KEY is not set")
	}
	return nil
}

type PaymentLinkRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	ExpiredAt   int64  `json:"expiredAt,omitempty"`
	Signature   string `json:"signature"`
}

type PaymentLink struct {
	PaymentLinkID string `json:"paymentLinkId"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	Status        string `json:"status"`
}

type providerResponse struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// CreatePaymentLink registers a checkout link with the provider.
func (ps *PayOSService) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	req.Signature = ps.sign(fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	var link PaymentLink
	if err := ps.do(ctx, http.MethodPost, "/v2/payment-requests", body, &link); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Payment link %s created for order code %d", link.PaymentLinkID, req.OrderCode)
	return &link, nil
}

func (ps *PayOSService) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(ps.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", ps.config.ClientID)
	req.Header.Set("x-api-key", ps.config.APIKey)

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PayOS API error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope providerResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}
	if envelope.Code != ProviderCodeSuccess {
		return fmt.Errorf("PayOS API error %s: %s", envelope.Code, envelope.Desc)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("error unmarshaling response data: %w", err)
	}
	return nil
}

type WebhookData struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	AccountNumber string `json:"accountNumber"`
	Reference     string `json:"reference"`
	PaymentLinkID string `json:"paymentLinkId"`
	Code          string `json:"code"`
	Desc          string `json:"desc"`
}

// WebhookPayload is the body the provider posts on payment events.
type WebhookPayload struct {
	Code      string      `json:"code"`
	Desc      string      `json:"desc"`
	Success   bool        `json:"success"`
	Data      WebhookData `json:"data"`
	Signature string      `json:"signature"`
}

// VerifyWebhook decodes body and checks its signature. Without a checksum
// key nothing can be verified, so every body is rejected.
func (ps *PayOSService) VerifyWebhook(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, utils.NewValidationError("Malformed webhook payload: %v", err)
	}

	if ps.config.ChecksumKey == "" {
		return nil, fmt.Errorf("%w: PAYOS_CHECKSUM_KEY is not set", ErrInvalidSignature)
	}

	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Data) == 0 {
		return nil, utils.NewValidationError("Malformed webhook payload: missing data")
	}
	expected, err := ps.signData(raw.Data)
	if err != nil {
		return nil, utils.NewValidationError("Malformed webhook payload: %v", err)
	}
	if !hmac.Equal([]byte(expected), []byte(payload.Signature)) {
		return nil, ErrInvalidSignature
	}
	return &payload, nil
}

// signData signs a JSON object as key=value pairs sorted by key and joined with '&'.
func (ps *PayOSService) signData(data json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return "", err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+formatSignedValue(fields[k]))
	}
	return ps.sign(strings.Join(pairs, "&")), nil
}

func (ps *PayOSService) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(ps.config.ChecksumKey))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatSignedValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if val == "null" || val == "undefined" {
			return ""
		}
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
