package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryType string

const (
	CategoryProtein   CategoryType = "protein"
	CategoryBase      CategoryType = "base"
	CategoryVegetable CategoryType = "vegetable"
	CategorySauce     CategoryType = "sauce"
	CategoryTopping   CategoryType = "topping"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryProtein, CategoryBase, CategoryVegetable, CategorySauce, CategoryTopping:
		return true
	}
	return false
}

type Category struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	Slug         string       `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Type         CategoryType `gorm:"size:20;index;not null" json:"type"`
	DisplayOrder int          `gorm:"not null;default:0" json:"displayOrder"`
	IsActive     bool         `gorm:"not null" json:"isActive"`
	Items        []Item       `json:"items,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
