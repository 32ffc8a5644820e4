package repository

import (
	"pesarelay/internal/domain"
	"pesarelay/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

// UpdateStatus sets the terminal status and receipt for the transaction matched
// by the provider's checkout identifier. A nil receipt leaves the column NULL.
// Returns domain.ErrTransactionNotFound when no row matched.
func (r *TransactionRepository) UpdateStatus(transactionID, status string, receipt *string) error {
	res := r.db.Model(&models.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{
			"status":               status,
			"mpesa_receipt_number": receipt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}
