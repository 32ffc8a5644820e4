package handler

import (
	"encoding/json"
	"net/http"

	"pesarelay/internal/domain"
	"pesarelay/internal/models"
	"pesarelay/pkg/daraja"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionCreator is the slice of the transaction repository the initiation
// flow needs.
type TransactionCreator interface {
	Create(t *models.Transaction) error
}

type PaymentHandler struct {
	provider     daraja.Provider
	transactions TransactionCreator
}

func NewPaymentHandler(provider daraja.Provider, transactions TransactionCreator) *PaymentHandler {
	return &PaymentHandler{provider: provider, transactions: transactions}
}

// amountString accepts a JSON string or bare number so callers may send
// "100" or 100.
type amountString string

func (a *amountString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountString(s)
		return nil
	}
	*a = amountString(b)
	return nil
}

type initiatePaymentRequest struct {
	PhoneNumber   string       `json:"phone_number" binding:"required,msisdn"`
	Amount        amountString `json:"amount" binding:"required,amount"`
	OrderID       string       `json:"order_id" binding:"required"`
	CustomerEmail string       `json:"customer_email" binding:"required,email"`
}

// Initiate validates the request, fetches a provider token, fires the STK push
// and records the Pending transaction. Validation happens before any outbound
// call; the three failure classes are checked in call order and map to distinct
// status codes (auth 503, push 502, store 500).
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "validation failed",
				"fields": violatedFields(verrs),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	amount, _ := decimal.NewFromString(string(req.Amount)) // validated by the amount rule

	ctx := c.Request.Context()
	token, err := h.provider.Authenticate(ctx)
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("token exchange failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrUpstreamAuth.Error()})
		return
	}

	push, err := h.provider.STKPush(ctx, token, daraja.STKRequest{
		PhoneNumber: req.PhoneNumber,
		Amount:      amount.String(),
		OrderID:     req.OrderID,
		Description: "Payment for order " + req.OrderID,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("stk push failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.ErrUpstreamPush.Error()})
		return
	}

	txn := &models.Transaction{
		TransactionID: push.CheckoutRequestID,
		PhoneNumber:   req.PhoneNumber,
		Amount:        amount,
		Status:        domain.StatusPending,
		Description:   "Payment for order " + req.OrderID,
	}
	if err := h.transactions.Create(txn); err != nil {
		// The provider already accepted the push: an orphaned checkout exists
		// upstream with no row here. There is no compensation call.
		log.Error().Err(err).
			Str("order_id", req.OrderID).
			Str("checkout_request_id", push.CheckoutRequestID).
			Msg("transaction insert failed after accepted push")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	log.Info().Str("order_id", req.OrderID).
		Str("checkout_request_id", push.CheckoutRequestID).
		Str("amount", amount.String()).
		Msg("payment initiated")
	c.JSON(http.StatusOK, gin.H{
		"message":       "STK push sent. Complete the payment on your phone.",
		"data":          json.RawMessage(push.Raw),
		"transactionId": txn.ID,
	})
}
