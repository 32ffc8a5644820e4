package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one STK push lifecycle. TransactionID is the
// provider-assigned CheckoutRequestID; it is set once at initiation and is the
// key the callback matches on. Status moves Pending -> Success|Failed exactly
// once, when the provider's callback arrives.
type Transaction struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TransactionID      string          `gorm:"size:100;not null;uniqueIndex" json:"transaction_id"`
	PhoneNumber        string          `gorm:"size:15;not null" json:"phone_number"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status             string          `gorm:"size:10;not null;index" json:"status"`
	Description        string          `gorm:"size:255" json:"description"`
	MpesaReceiptNumber *string         `gorm:"size:50" json:"mpesa_receipt_number"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
