package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is a tender a store accepts at checkout. Configuration only:
// no charging happens in this system, the storefront just shows the options
// and checkout refuses tenders the store has not enabled.
type PaymentMethod struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StoreID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"store_id"`
	Code         string         `gorm:"not null" json:"code"` // cash, card_on_delivery, online
	DisplayName  string         `gorm:"not null" json:"display_name"`
	Instructions string         `json:"instructions"`
	IsEnabled    bool           `gorm:"default:true" json:"is_enabled"`
	SortOrder    int            `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PaymentMethodCodes is the set of tenders the platform understands.
var PaymentMethodCodes = map[string]bool{
	"cash":             true,
	"card_on_delivery": true,
	"online":           true,
}

func (p *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
