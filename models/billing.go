package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingRecord is the platform's monthly commission statement for one
// store: how many orders were delivered in the period, the gross volume and
// the commission owed. Generated by the admin billing run; one row per
// store per period.
type BillingRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StoreID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_billing_store_period,unique" json:"store_id"`
	Store          *Store         `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Period         string         `gorm:"not null;index:idx_billing_store_period,unique" json:"period"` // YYYY-MM
	OrderCount     int64          `gorm:"default:0" json:"order_count"`
	GrossVolume    float64        `gorm:"default:0" json:"gross_volume"`
	CommissionRate float64        `gorm:"not null" json:"commission_rate"`
	Commission     float64        `gorm:"default:0" json:"commission"`
	GeneratedAt    time.Time      `json:"generated_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BillingRecord) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
