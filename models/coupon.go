package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

// Coupon is a store-scoped promo code redeemed at checkout.
type Coupon struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StoreID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"store_id"`
	Code        string         `gorm:"not null;index" json:"code"`
	Description string         `json:"description"`
	Type        DiscountType   `gorm:"not null" json:"type"`
	Value       float64        `gorm:"not null" json:"value"` // percent (0-100] or fixed amount
	MinSubtotal float64        `gorm:"default:0" json:"min_subtotal"`
	UsageLimit  int            `gorm:"default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount   int            `gorm:"default:0" json:"used_count"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	return nil
}

// Redeemable reports whether the coupon can be applied to a subtotal at the
// given time. It does not mutate usage counters; checkout increments those
// inside its transaction.
func (c *Coupon) Redeemable(subtotal float64, now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	if subtotal < c.MinSubtotal {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount amount for a subtotal, capped so the
// total never goes negative.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	var discount float64
	switch c.Type {
	case DiscountTypePercent:
		discount = subtotal * c.Value / 100
	case DiscountTypeFixed:
		discount = c.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
