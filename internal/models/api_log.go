package models

import "time"

// APILog is one row per HTTP exchange, written by the audit middleware after the
// response is sent. Append-only; nothing in the service reads it back.
type APILog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RequestID       string    `gorm:"size:36;index" json:"request_id"`
	Endpoint        string    `gorm:"size:255;not null" json:"endpoint"`
	RequestPayload  string    `gorm:"type:text" json:"request_payload"`
	ResponsePayload string    `gorm:"type:text" json:"response_payload"`
	StatusCode      int       `gorm:"not null" json:"status_code"`
	CreatedAt       time.Time `json:"created_at"`
}

func (APILog) TableName() string {
	return "api_logs"
}
