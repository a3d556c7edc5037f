package models

import "time"

const MainSettingsKey = "main"

type StoreSettings struct {
	Key       string    `gorm:"size:20;primaryKey" json:"key"`
	IsOpen    bool      `gorm:"not null;default:false" json:"isOpen"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StoreSettings) TableName() string { return "store_settings" }
