package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreHours is one recurring weekly open window. A store may have several
// rows for the same day (split shifts, e.g. lunch and dinner service); a day
// with no rows is closed all day. Windows never span midnight; the hours
// update endpoint rejects close <= open.
type StoreHours struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	DayOfWeek int       `gorm:"not null" json:"day_of_week"` // 0=Sunday, 6=Saturday
	OpenTime  string    `gorm:"not null" json:"open_time"`   // HH:MM or HH:MM:SS
	CloseTime string    `gorm:"not null" json:"close_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StoreHours) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
