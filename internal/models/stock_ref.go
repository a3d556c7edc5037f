package models

import (
	"fmt"

	"github.com/google/uuid"
)

// RefModel discriminates which stock holder a StockRef points at.
type RefModel string

const (
	RefItem   RefModel = "Item"
	RefSupply RefModel = "Supply"
)

func (m RefModel) Valid() bool {
	return m == RefItem || m == RefSupply
}

// StockRef is a reference to either an Item or a Supply.
type StockRef struct {
	Model RefModel  `gorm:"column:ref_model;size:10;not null;index" json:"refModel"`
	ID    uuid.UUID `gorm:"column:ref_id;type:uuid;not null;index" json:"refId"`
}

func ItemRef(id uuid.UUID) StockRef   { return StockRef{Model: RefItem, ID: id} }
func SupplyRef(id uuid.UUID) StockRef { return StockRef{Model: RefSupply, ID: id} }

func (r StockRef) String() string {
	return fmt.Sprintf("%s:%s", r.Model, r.ID)
}
