package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WhatsAppLogStatus string

const (
	WhatsAppSent    WhatsAppLogStatus = "sent"
	WhatsAppFailed  WhatsAppLogStatus = "failed"
	WhatsAppBlocked WhatsAppLogStatus = "blocked"
)

type WhatsAppLog struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Phone       string            `gorm:"size:20;not null" json:"phone"`
	Month       string            `gorm:"size:7;index;not null" json:"month"` // YYYY-MM
	OrderNumber string            `gorm:"size:20;index" json:"orderNumber"`
	Template    string            `gorm:"size:50;not null" json:"template"`
	Status      WhatsAppLogStatus `gorm:"size:10;index;not null" json:"status"`
	Error       string            `gorm:"size:500" json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func (l *WhatsAppLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

func (WhatsAppLog) TableName() string { return "whatsapp_logs" }
