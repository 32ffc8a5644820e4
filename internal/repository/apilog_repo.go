package repository

import (
	"pesarelay/internal/models"

	"gorm.io/gorm"
)

type APILogRepository struct {
	db *gorm.DB
}

func NewAPILogRepository(db *gorm.DB) *APILogRepository {
	return &APILogRepository{db: db}
}

func (r *APILogRepository) Create(l *models.APILog) error {
	return r.db.Create(l).Error
}
