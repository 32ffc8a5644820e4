package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client talks to the Safaricom Daraja API: OAuth token exchange plus the
// Lipa Na M-Pesa Online (STK push) endpoint.
type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	client         *http.Client
	now            func() time.Time
}

func NewClient(baseURL, consumerKey, consumerSecret, shortCode, passkey, callbackURL string) *Client {
	if baseURL == "" {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	return &Client{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		ShortCode:      shortCode,
		Passkey:        passkey,
		CallbackURL:    callbackURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Authenticate exchanges the consumer key/secret for a short-lived bearer token.
// A fresh token is fetched per transaction; no caching.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daraja token: status %d", resp.StatusCode)
	}
	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("daraja token decode: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("daraja token: empty access_token")
	}
	return out.AccessToken, nil
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush triggers the payment prompt on the payer's phone. The password is
// base64(shortcode + passkey + timestamp) with the timestamp in yyyyMMddHHmmss.
func (c *Client) STKPush(ctx context.Context, token string, r STKRequest) (*STKResponse, error) {
	timestamp := c.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))
	desc := r.Description
	if desc == "" {
		desc = "Payment for order " + r.OrderID
	}
	payload := stkPushPayload{
		BusinessShortCode: c.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            r.Amount,
		PartyA:            r.PhoneNumber,
		PartyB:            c.ShortCode,
		PhoneNumber:       r.PhoneNumber,
		CallBackURL:       c.CallbackURL,
		AccountReference:  r.OrderID,
		TransactionDesc:   desc,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daraja stk push: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).
			Str("order_id", r.OrderID).
			Str("body", string(respBody)).
			Msg("stk push rejected")
		return nil, fmt.Errorf("daraja stk push: status %d", resp.StatusCode)
	}
	var out STKResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("daraja stk push decode: %w", err)
	}
	if out.CheckoutRequestID == "" {
		return nil, fmt.Errorf("daraja stk push: missing CheckoutRequestID")
	}
	out.Raw = respBody
	log.Info().Str("order_id", r.OrderID).
		Str("checkout_request_id", out.CheckoutRequestID).
		Msg("stk push accepted")
	return &out, nil
}
