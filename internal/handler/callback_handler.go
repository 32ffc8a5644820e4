package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pesarelay/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TransactionFinalizer is the slice of the transaction repository the callback
// flow needs.
type TransactionFinalizer interface {
	UpdateStatus(transactionID, status string, receipt *string) error
}

type CallbackHandler struct {
	transactions TransactionFinalizer
}

func NewCallbackHandler(transactions TransactionFinalizer) *CallbackHandler {
	return &CallbackHandler{transactions: transactions}
}

type callbackMetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// stkCallbackPayload accepts both shapes the provider is seen sending: the flat
// form with top-level ResultCode/CheckoutRequestID, and the full Daraja
// envelope under Body.stkCallback.
type stkCallbackPayload struct {
	ResultCode         json.RawMessage `json:"ResultCode"`
	CheckoutRequestID  string          `json:"CheckoutRequestID"`
	MpesaReceiptNumber string          `json:"MpesaReceiptNumber"`

	Body struct {
		StkCallback struct {
			MerchantRequestID string          `json:"MerchantRequestID"`
			CheckoutRequestID string          `json:"CheckoutRequestID"`
			ResultCode        json.RawMessage `json:"ResultCode"`
			ResultDesc        string          `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []callbackMetadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// normalize flattens either payload shape into (resultCode, checkoutID, receipt).
func (p *stkCallbackPayload) normalize() (string, string, *string) {
	resultCode := rawToString(p.ResultCode)
	checkoutID := p.CheckoutRequestID
	var receipt *string
	if p.MpesaReceiptNumber != "" {
		r := p.MpesaReceiptNumber
		receipt = &r
	}
	if checkoutID == "" && p.Body.StkCallback.CheckoutRequestID != "" {
		checkoutID = p.Body.StkCallback.CheckoutRequestID
		resultCode = rawToString(p.Body.StkCallback.ResultCode)
		for _, item := range p.Body.StkCallback.CallbackMetadata.Item {
			if item.Name == "MpesaReceiptNumber" {
				if s, ok := item.Value.(string); ok && s != "" {
					receipt = &s
				}
			}
		}
	}
	return resultCode, checkoutID, receipt
}

// rawToString renders a JSON string or number result code as its bare digits.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Handle finalizes a transaction from the provider's asynchronous callback.
// ResultCode 0 means the payer completed the prompt; anything else is Failed.
// An unmatched CheckoutRequestID is a 404, never a silent acknowledgement.
func (h *CallbackHandler) Handle(c *gin.Context) {
	var payload stkCallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Error().Err(err).Msg("callback body unreadable")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	resultCode, checkoutID, receipt := payload.normalize()
	if resultCode == "" || checkoutID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ResultCode and CheckoutRequestID are required"})
		return
	}

	status := domain.StatusFromResultCode(resultCode)
	if err := h.transactions.UpdateStatus(checkoutID, status, receipt); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			log.Warn().Str("checkout_request_id", checkoutID).Msg("callback for unknown transaction")
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		log.Error().Err(err).Str("checkout_request_id", checkoutID).Msg("callback update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update transaction"})
		return
	}

	log.Info().Str("checkout_request_id", checkoutID).
		Str("result_code", resultCode).
		Str("status", status).
		Msg("callback processed")
	c.String(http.StatusOK, "Callback received, transaction marked %s", status)
}
