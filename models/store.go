package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mercato-backend/storestatus"
)

type Store struct {
	ID              uuid.UUID               `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name            string                  `gorm:"not null" json:"name"`
	Slug            string                  `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID         uuid.UUID               `gorm:"type:uuid;not null" json:"owner_id"`
	Owner           User                    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Address         string                  `json:"address"`
	City            string                  `json:"city"`
	PostCode        string                  `json:"post_code"`
	Latitude        float64                 `gorm:"not null" json:"latitude"`
	Longitude       float64                 `gorm:"not null" json:"longitude"`
	Timezone        string                  `gorm:"default:'Europe/London'" json:"timezone"`
	DeliveryRadius  float64                 `gorm:"default:5" json:"delivery_radius"`
	DeliveryFee     float64                 `gorm:"default:4.99" json:"delivery_fee"`
	FreeDeliveryMin float64                 `gorm:"default:50" json:"free_delivery_min"`
	Phone           string                  `json:"phone"`
	Email           string                  `json:"email"`
	LogoURL         string                  `json:"logo_url"`
	ForceStatus     storestatus.ForceStatus `gorm:"default:'normal'" json:"force_status"`
	IsActive        bool                    `gorm:"default:true" json:"is_active"`
	Hours           []StoreHours            `gorm:"foreignKey:StoreID" json:"hours,omitempty"`
	Staff           []StoreStaff            `gorm:"foreignKey:StoreID" json:"staff,omitempty"`
	PaymentMethods  []PaymentMethod         `gorm:"foreignKey:StoreID" json:"payment_methods,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	DeletedAt       gorm.DeletedAt          `gorm:"index" json:"-"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Location resolves the store's IANA timezone, falling back to UTC when the
// name is missing or unknown. Status evaluation is defined in store-local
// time, so callers convert the clock through this before evaluating.
func (s *Store) Location() *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// HourEntries converts the store's hours rows into evaluator input.
func (s *Store) HourEntries() []storestatus.HourEntry {
	entries := make([]storestatus.HourEntry, len(s.Hours))
	for i, h := range s.Hours {
		entries[i] = storestatus.HourEntry{
			DayOfWeek: h.DayOfWeek,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
		}
	}
	return entries
}
